package videos

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"unicode/utf8"
)

// ZeroViewsPolicy decides what happens to per-1k ratios when views == 0.
type ZeroViewsPolicy string

const (
	// ZeroViewsSentinel keeps the record and sets both ratios to NaN.
	ZeroViewsSentinel ZeroViewsPolicy = "sentinel"
	// ZeroViewsExclude drops the record from the derived table.
	ZeroViewsExclude ZeroViewsPolicy = "exclude"
)

// ParseZeroViewsPolicy accepts "sentinel" or "exclude"; empty means sentinel.
func ParseZeroViewsPolicy(s string) (ZeroViewsPolicy, error) {
	switch ZeroViewsPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ZeroViewsSentinel:
		return ZeroViewsSentinel, nil
	case ZeroViewsExclude:
		return ZeroViewsExclude, nil
	default:
		return "", fmt.Errorf("unsupported zero-views policy %q (use sentinel|exclude)", s)
	}
}

// DeriveOptions controls feature derivation.
type DeriveOptions struct {
	ZeroViews ZeroViewsPolicy
}

// Derive computes features for every record using the sentinel policy.
func Derive(t *Table) (*Table, error) {
	return DeriveWith(t, DeriveOptions{ZeroViews: ZeroViewsSentinel})
}

// DeriveWith returns a new table whose records carry Features. The table must
// already be cleaned.
func DeriveWith(t *Table, opt DeriveOptions) (*Table, error) {
	policy, err := ParseZeroViewsPolicy(string(opt.ZeroViews))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return &Table{}, nil
	}
	out := t.derive(len(t.Records))
	for i, r := range t.Records {
		if !r.Complete() {
			return nil, fmt.Errorf("record %d (%s): %w", i+1, r.VideoID, ErrNotCleaned)
		}
		if r.Views.N == 0 && policy == ZeroViewsExclude {
			continue
		}
		r.Features = FeaturesOf(r)
		out.Records = append(out.Records, r)
	}
	return out, nil
}

// FeaturesOf computes the derived columns of a single complete record.
func FeaturesOf(r Record) *Features {
	return &Features{
		LikesPer1K:      Per1K(r.Likes.N, r.Views.N),
		CommentsPer1K:   Per1K(r.Comments.N, r.Views.N),
		TitleLength:     utf8.RuneCountInString(r.Title),
		PublicationYear: publicationYear(r.PublishedRaw),
	}
}

var hundredThousand = big.NewInt(100000)

// Per1K returns count / (views/1000) rounded to two decimals, half away from
// zero. The division is done on integers so ties at the third decimal are
// exact. It returns NaN when views is zero.
func Per1K(count, views int64) float64 {
	if views == 0 {
		return math.NaN()
	}
	num := new(big.Int).Mul(big.NewInt(count), hundredThousand)
	den := big.NewInt(views)
	q, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	// |2*rem| >= |den| rounds away from zero
	rem.Abs(rem).Lsh(rem, 1)
	if rem.Cmp(new(big.Int).Abs(den)) >= 0 {
		if num.Sign()*den.Sign() < 0 {
			q.Sub(q, big.NewInt(1))
		} else {
			q.Add(q, big.NewInt(1))
		}
	}
	hundredths, _ := new(big.Float).SetInt(q).Float64()
	return hundredths / 100
}

func publicationYear(published string) string {
	if utf8.RuneCountInString(published) <= 4 {
		return published
	}
	return string([]rune(published)[:4])
}
