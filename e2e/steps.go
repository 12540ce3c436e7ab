package e2e

import (
	"github.com/cucumber/godog"

	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/e2e/steps/common"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/e2e/steps/countries"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	countries.RegisterSteps(ctx, tc)
}
