package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	response     *http.Response
	responseBody []byte
	treeID       int64
	branchIDs    []int64
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{tc: tc}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	// Background steps
	sc.Step(`^an orchard server is running$`, s.anOrchardServerIsRunning)
	sc.Step(`^a tree from "([^"]*)" aged (\d+) with branches:$`, s.aTreeWithBranches)

	// Request steps
	sc.Step(`^I send a (GET|POST|PUT|DELETE) request to "([^"]*)"$`, s.iSendARequest)
	sc.Step(`^I send a (GET|POST|PUT|DELETE) request to "([^"]*)" with body:$`, s.iSendARequestWithBody)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response body should be "([^"]*)"$`, s.theResponseBodyShouldBe)
	sc.Step(`^the response error code should be "([^"]*)"$`, s.theResponseErrorCodeShouldBe)
	sc.Step(`^the response should list (\d+) trees?$`, s.theResponseShouldListTrees)

	// Database steps
	sc.Step(`^the tree should have (\d+) branch(?:es)?$`, s.theTreeShouldHaveBranches)
	sc.Step(`^(\d+) branch(?:es)? of the tree should have length (\d+) and leaf count (\d+)$`, s.branchesOfTheTreeShouldHave)
	sc.Step(`^the tree should not exist$`, s.theTreeShouldNotExist)
	sc.Step(`^no branches should exist$`, s.noBranchesShouldExist)

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, s.tc.Reset()
	})
}

// Background steps

func (s *StepsContext) anOrchardServerIsRunning() error {
	// Server is already running via TestContext
	return nil
}

func (s *StepsContext) aTreeWithBranches(country string, age int, table *godog.Table) error {
	branches := make([]map[string]int, 0, len(table.Rows))
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		length, err := strconv.Atoi(row.Cells[0].Value)
		if err != nil {
			return err
		}
		leaves, err := strconv.Atoi(row.Cells[1].Value)
		if err != nil {
			return err
		}
		branches = append(branches, map[string]int{"length": length, "leafCount": leaves})
	}

	body, err := json.Marshal(map[string]interface{}{
		"country":  country,
		"ageYears": age,
		"branches": branches,
	})
	if err != nil {
		return err
	}
	if err := s.do(http.MethodPost, "/trees", body); err != nil {
		return err
	}
	if s.response.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to create tree: %d %s", s.response.StatusCode, s.responseBody)
	}

	var created struct {
		ID       int64 `json:"id"`
		Branches []struct {
			ID int64 `json:"id"`
		} `json:"branches"`
	}
	if err := json.Unmarshal(s.responseBody, &created); err != nil {
		return err
	}
	s.treeID = created.ID
	s.branchIDs = s.branchIDs[:0]
	for _, b := range created.Branches {
		s.branchIDs = append(s.branchIDs, b.ID)
	}
	return nil
}

// Request steps

func (s *StepsContext) iSendARequest(method, path string) error {
	return s.do(method, s.expand(path), nil)
}

func (s *StepsContext) iSendARequestWithBody(method, path string, body *godog.DocString) error {
	return s.do(method, s.expand(path), []byte(s.expand(body.Content)))
}

// expand substitutes {tree} with the current tree's id and {branchN} with
// the id of its N-th branch, counting from 1.
func (s *StepsContext) expand(text string) string {
	text = strings.ReplaceAll(text, "{tree}", strconv.FormatInt(s.treeID, 10))
	for i, id := range s.branchIDs {
		text = strings.ReplaceAll(text, fmt.Sprintf("{branch%d}", i+1), strconv.FormatInt(id, 10))
	}
	return text
}

func (s *StepsContext) do(method, path string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, s.tc.ServerURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	s.response, err = s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}

	s.responseBody, err = io.ReadAll(s.response.Body)
	_ = s.response.Body.Close()
	return err
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(expectedStatus int) error {
	if s.response == nil {
		return fmt.Errorf("no response received")
	}
	if s.response.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d: %s", expectedStatus, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseBodyShouldBe(expected string) error {
	actual := strings.TrimSpace(string(s.responseBody))
	if actual != expected {
		return fmt.Errorf("expected body %q, got %q", expected, actual)
	}
	return nil
}

func (s *StepsContext) theResponseErrorCodeShouldBe(code string) error {
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return fmt.Errorf("response is not an error body: %w", err)
	}
	if body.Error.Code != code {
		return fmt.Errorf("expected error code %q, got %q (%s)", code, body.Error.Code, body.Error.Message)
	}
	return nil
}

func (s *StepsContext) theResponseShouldListTrees(count int) error {
	var list []json.RawMessage
	if err := json.Unmarshal(s.responseBody, &list); err != nil {
		return err
	}
	if len(list) != count {
		return fmt.Errorf("expected %d trees, got %d", count, len(list))
	}
	return nil
}

// Database steps

func (s *StepsContext) theTreeShouldHaveBranches(count int) error {
	var n int64
	if err := s.tc.DB.Table("branches").Where("tree_id = ?", s.treeID).Count(&n).Error; err != nil {
		return err
	}
	if n != int64(count) {
		return fmt.Errorf("expected %d branches, found %d", count, n)
	}
	return nil
}

func (s *StepsContext) branchesOfTheTreeShouldHave(count, length, leaves int) error {
	var n int64
	err := s.tc.DB.Table("branches").
		Where("tree_id = ? AND length = ? AND leaf_count = ?", s.treeID, length, leaves).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n != int64(count) {
		return fmt.Errorf("expected %d branches with length %d and leaf count %d, found %d", count, length, leaves, n)
	}
	return nil
}

func (s *StepsContext) theTreeShouldNotExist() error {
	var n int64
	if err := s.tc.DB.Table("trees").Where("id = ?", s.treeID).Count(&n).Error; err != nil {
		return err
	}
	if n != 0 {
		return fmt.Errorf("tree %d still exists", s.treeID)
	}
	return nil
}

func (s *StepsContext) noBranchesShouldExist() error {
	var n int64
	if err := s.tc.DB.Table("branches").Count(&n).Error; err != nil {
		return err
	}
	if n != 0 {
		return fmt.Errorf("expected no branches, found %d", n)
	}
	return nil
}
