package pricing

// Package pricing validates shopper-named prices against product policies.

import (
	"math"

	"github.com/shopspring/decimal"
)

// Submission is the raw price (and optional billing period) posted by a shopper.
type Submission struct {
	Price  string
	Period string
}

// Accepted is a validated, canonical price. Period is empty unless the
// product is a variable billing subscription.
type Accepted struct {
	Price  decimal.Decimal
	Period Period
}

// Rule is an additional check run after the built-in ones have passed.
type Rule func(accepted Accepted, policy Policy) error

type ValidatorConfig struct {
	Normalizer Normalizer
	Factors    FactorTable
	Formatter  Formatter
	Messages   Messages
}

type Validator struct {
	normalizer Normalizer
	factors    FactorTable
	formatter  Formatter
	messages   Messages
}

// NewValidator builds a Validator; zero-valued config fields fall back to
// the defaults.
func NewValidator(cfg ValidatorConfig) *Validator {
	v := &Validator{
		normalizer: cfg.Normalizer,
		factors:    cfg.Factors,
		formatter:  cfg.Formatter,
		messages:   cfg.Messages,
	}
	if v.normalizer == (Normalizer{}) {
		v.normalizer = DefaultNormalizer()
	}
	if len(v.factors) == 0 {
		v.factors = DefaultFactors()
	}
	if v.formatter == (Formatter{}) {
		v.formatter = DefaultFormatter()
	}
	if len(v.messages) == 0 {
		v.messages = DefaultMessages()
	}
	return v
}

func (v *Validator) Normalizer() Normalizer {
	return v.normalizer
}

func (v *Validator) Factors() FactorTable {
	return v.factors
}

func (v *Validator) Formatter() Formatter {
	return v.formatter
}

// Validate checks input against policy. The first failing check wins; on
// success the canonical price is returned.
func (v *Validator) Validate(input Submission, policy Policy, productTitle string, rules ...Rule) (Accepted, error) {
	candidate := v.normalizer.Normalize(input.Price)
	if !candidate.Valid || candidate.Decimal.IsNegative() || math.IsInf(candidate.Decimal.InexactFloat64(), 0) {
		return Accepted{}, v.invalid(productTitle)
	}
	price := candidate.Decimal

	variable := policy.IsSubscription() && policy.VariableBillingPeriod()
	var period Period
	if variable {
		period = v.ResolvePeriod(input.Period, policy)
	}

	switch {
	case policy.hasMinimum() && variable:
		minimumPeriod := policy.minimumPeriod()
		annualMinimum := v.factors.Annualize(policy.MinimumPrice.Decimal, minimumPeriod)
		if v.factors.Annualize(price, period).LessThan(annualMinimum) {
			bound, boundPeriod := policy.MinimumPrice.Decimal, minimumPeriod
			if _, ok := v.factors.Factor(period); ok {
				bound, boundPeriod = v.factors.Deannualize(annualMinimum, period), period
			}
			return Accepted{}, v.belowMinimum(productTitle, bound, boundPeriod)
		}
	case policy.hasMinimum() && price.LessThan(policy.MinimumPrice.Decimal):
		return Accepted{}, v.belowMinimum(productTitle, policy.MinimumPrice.Decimal, "")
	case policy.hasMaximum() && price.GreaterThan(policy.MaximumPrice.Decimal):
		return Accepted{}, v.aboveMaximum(productTitle, policy.MaximumPrice.Decimal)
	}

	accepted := Accepted{Price: price, Period: period}
	for _, rule := range rules {
		if rule == nil {
			continue
		}
		if err := rule(accepted, policy); err != nil {
			return Accepted{}, err
		}
	}
	return accepted, nil
}

// ResolvePeriod picks the billing period for a variable billing submission:
// the posted one when recognized, then the policy's suggested and minimum
// periods, then DefaultPeriod.
func (v *Validator) ResolvePeriod(posted string, policy Policy) Period {
	if period, ok := v.RecognizePeriod(posted); ok {
		return period
	}
	if policy.SuggestedBillingPeriod != "" {
		return policy.SuggestedBillingPeriod
	}
	if policy.MinimumBillingPeriod != "" {
		return policy.MinimumBillingPeriod
	}
	return DefaultPeriod
}

// RecognizePeriod accepts the standard periods plus any period the factor
// table was extended with.
func (v *Validator) RecognizePeriod(raw string) (Period, bool) {
	if period, ok := ParsePeriod(raw); ok {
		return period, true
	}
	if raw == "" {
		return "", false
	}
	if _, ok := v.factors.Factor(Period(raw)); ok {
		return Period(raw), true
	}
	return "", false
}

func (v *Validator) invalid(title string) *PriceError {
	return &PriceError{
		Code:         CodeInvalid,
		ProductTitle: title,
		Message:      v.messages.Render(CodeInvalid, map[string]string{tagTitle: title}),
	}
}

func (v *Validator) belowMinimum(title string, bound decimal.Decimal, period Period) *PriceError {
	return &PriceError{
		Code:         CodeBelowMinimum,
		ProductTitle: title,
		Bound:        decimal.NewNullDecimal(bound),
		Period:       period,
		Message: v.messages.Render(CodeBelowMinimum, map[string]string{
			tagTitle:   title,
			tagMinimum: v.formatter.PeriodPrice(bound, period),
		}),
	}
}

func (v *Validator) aboveMaximum(title string, bound decimal.Decimal) *PriceError {
	return &PriceError{
		Code:         CodeAboveMaximum,
		ProductTitle: title,
		Bound:        decimal.NewNullDecimal(bound),
		Message: v.messages.Render(CodeAboveMaximum, map[string]string{
			tagTitle:   title,
			tagMaximum: v.formatter.Amount(bound),
		}),
	}
}
