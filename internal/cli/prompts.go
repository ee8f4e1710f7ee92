package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/shopspring/decimal"

	"github.com/aristath/tradeadvisor/internal/domain"
)

// askFunc matches survey.AskOne so prompts can be scripted in tests
type askFunc func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error

// validateDecimal accepts any number, optionally prefixed with "$"
func validateDecimal(val interface{}) error {
	str, ok := val.(string)
	if !ok {
		return fmt.Errorf("invalid input type")
	}
	if _, err := parseDecimal(str); err != nil {
		return fmt.Errorf("please enter a number")
	}
	return nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	return decimal.NewFromString(s)
}

// askDecimal prompts for a number and re-asks until one parses
func askDecimal(ask askFunc, message, help string) (decimal.Decimal, error) {
	var answer string
	prompt := &survey.Input{Message: message, Help: help}
	if err := ask(prompt, &answer, survey.WithValidator(survey.Required), survey.WithValidator(validateDecimal)); err != nil {
		return decimal.Zero, err
	}
	return parseDecimal(answer)
}

func askConfirm(ask askFunc, message string) (bool, error) {
	var answer bool
	if err := ask(&survey.Confirm{Message: message}, &answer); err != nil {
		return false, err
	}
	return answer, nil
}

// PromptAssetClass asks for the asset type. An unrecognized answer
// returns a *domain.InvalidSelectionError.
func PromptAssetClass() (domain.AssetClass, error) {
	return promptAssetClass(survey.AskOne)
}

func promptAssetClass(ask askFunc) (domain.AssetClass, error) {
	var answer string
	prompt := &survey.Input{
		Message: "Select asset type (s for stock, c for crypto):",
	}
	if err := ask(prompt, &answer); err != nil {
		return 0, err
	}
	return domain.ParseAssetClass(answer)
}
