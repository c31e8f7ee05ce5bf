package fence

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Delimiters is the pair of runes the machine recognizes.
type Delimiters struct {
	Quote  rune
	Escape rune
}

// ErrSameDelimiter is returned when the quote and escape runes are equal.
var ErrSameDelimiter = errors.New("quote and escape must differ")

// Validate checks that both runes are usable and distinct.
func (d Delimiters) Validate() error {
	if d.Quote == 0 || !utf8.ValidRune(d.Quote) {
		return fmt.Errorf("invalid quote rune %U", d.Quote)
	}
	if d.Escape == 0 || !utf8.ValidRune(d.Escape) {
		return fmt.Errorf("invalid escape rune %U", d.Escape)
	}
	if d.Quote == d.Escape {
		return fmt.Errorf("%w: both are %q", ErrSameDelimiter, d.Quote)
	}
	return nil
}

// Option configures a Machine.
type Option func(*Delimiters)

// WithQuote sets the fence rune.
func WithQuote(r rune) Option {
	return func(d *Delimiters) { d.Quote = r }
}

// WithEscape sets the escape rune.
func WithEscape(r rune) Option {
	return func(d *Delimiters) { d.Escape = r }
}

// WithDelimiters sets both runes at once.
func WithDelimiters(delims Delimiters) Option {
	return func(d *Delimiters) { *d = delims }
}

func buildDelimiters(opts []Option) Delimiters {
	d := Delimiters{Quote: DefaultQuote, Escape: DefaultEscape}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}
