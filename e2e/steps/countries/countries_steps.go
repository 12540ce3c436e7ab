package countries

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Do(ctx context.Context, method, path string) error
	GetLastStatusCode() int
	GetResponseField(field string) (any, error)
	GetResponseList() ([]map[string]any, error)
	Remember(key string, v any)
	Recall(key string) (any, bool)
}

// RegisterSteps registers country-specific step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &countrySteps{tc: tc}

	ctx.Step(`^the countries have been refreshed$`, steps.refreshed)
	ctx.Step(`^I remember the first country in the list$`, steps.rememberFirst)
	ctx.Step(`^I (GET|DELETE) the remembered country$`, steps.requestRemembered)
	ctx.Step(`^the list should not be empty$`, steps.listNotEmpty)
	ctx.Step(`^every country should have region "([^"]*)"$`, steps.everyRegion)
	ctx.Step(`^the list should be ordered by estimated_gdp descending with nulls last$`, steps.orderedByGDPDesc)
	ctx.Step(`^countries_processed should be positive$`, steps.processedPositive)
}

type countrySteps struct {
	tc TestContext
}

func (s *countrySteps) refreshed(ctx context.Context) error {
	if err := s.tc.Do(ctx, http.MethodPost, "/countries/refresh"); err != nil {
		return err
	}
	if s.tc.GetLastStatusCode() != http.StatusOK {
		return fmt.Errorf("refresh returned %d", s.tc.GetLastStatusCode())
	}
	return nil
}

func (s *countrySteps) rememberFirst(_ context.Context) error {
	list, err := s.tc.GetResponseList()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("list is empty")
	}
	name, ok := list[0]["name"].(string)
	if !ok {
		return fmt.Errorf("first country has no name")
	}
	s.tc.Remember("country", name)
	return nil
}

func (s *countrySteps) requestRemembered(ctx context.Context, method string) error {
	v, ok := s.tc.Recall("country")
	if !ok {
		return fmt.Errorf("no country remembered")
	}
	return s.tc.Do(ctx, method, "/countries/"+url.PathEscape(v.(string)))
}

func (s *countrySteps) listNotEmpty(_ context.Context) error {
	list, err := s.tc.GetResponseList()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("expected a non-empty list")
	}
	return nil
}

func (s *countrySteps) everyRegion(_ context.Context, region string) error {
	list, err := s.tc.GetResponseList()
	if err != nil {
		return err
	}
	for _, c := range list {
		if c["region"] != region {
			return fmt.Errorf("country %v has region %v", c["name"], c["region"])
		}
	}
	return nil
}

func (s *countrySteps) orderedByGDPDesc(_ context.Context) error {
	list, err := s.tc.GetResponseList()
	if err != nil {
		return err
	}
	seenNull := false
	prev := 0.0
	for i, c := range list {
		gdp, ok := c["estimated_gdp"].(float64)
		if !ok {
			seenNull = true
			continue
		}
		if seenNull {
			return fmt.Errorf("country %v has an estimate after a null one", c["name"])
		}
		if i > 0 && gdp > prev {
			return fmt.Errorf("country %v breaks descending order", c["name"])
		}
		prev = gdp
	}
	return nil
}

func (s *countrySteps) processedPositive(_ context.Context) error {
	v, err := s.tc.GetResponseField("countries_processed")
	if err != nil {
		return err
	}
	n, ok := v.(float64)
	if !ok || n <= 0 {
		return fmt.Errorf("expected positive countries_processed, got %v", v)
	}
	return nil
}
