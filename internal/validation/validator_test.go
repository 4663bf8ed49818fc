package validation_test

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/vidstats-cli/internal/validation"
)

type settings struct {
	Format  string `mapstructure:"chart_format" validate:"required,oneof=xlsx vegalite"`
	Samples int    `yaml:"sample_rows" validate:"gte=0"`
	Name    string `json:"name,omitempty" validate:"max=5"`
}

func TestValidator_OK(t *testing.T) {
	v := validation.New()
	assert.NoError(t, v.Validate(settings{Format: "xlsx", Samples: 3}))
}

func TestValidator_Errors(t *testing.T) {
	v := validation.New()
	err := v.Validate(settings{Format: "png", Samples: -1, Name: "toolong"})
	require.Error(t, err)

	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "must be one of: xlsx vegalite", verr.Fields["chart_format"])
	assert.Equal(t, "must be greater than or equal to 0", verr.Fields["sample_rows"])
	assert.Equal(t, "must not exceed 5 characters", verr.Fields["name"])
	assert.Equal(t,
		"invalid chart_format must be one of: xlsx vegalite; name must not exceed 5 characters; sample_rows must be greater than or equal to 0",
		err.Error())
}

func TestValidator_Required(t *testing.T) {
	v := validation.New()
	err := v.Validate(settings{})
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "is required", verr.Fields["chart_format"])
}

func TestValidator_CustomTag(t *testing.T) {
	v := validation.New()
	require.NoError(t, v.RegisterValidation("even", func(fl validator.FieldLevel) bool {
		return fl.Field().Int()%2 == 0
	}))
	type pair struct {
		N int `json:"n" validate:"even"`
	}
	assert.NoError(t, v.Validate(pair{N: 2}))
	err := v.Validate(pair{N: 3})
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields["n"], `failed "even"`)
}
