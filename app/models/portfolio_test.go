package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortfolioInputFeaturedProjects(t *testing.T) {
	in := PortfolioInput{FeaturedProjects: json.RawMessage(`[{"title":"a"},{"title":"b"},{"title":"c"},{"title":"d"}]`)}
	assert.Contains(t, in.Validate(), "featured_projects")

	in = PortfolioInput{FeaturedProjects: json.RawMessage(`{"title":"a"}`)}
	assert.Contains(t, in.Validate(), "featured_projects")

	in = PortfolioInput{FeaturedProjects: json.RawMessage(`[{"title":"a"}]`)}
	assert.Nil(t, in.Validate())

	p := NewPortfolio(1)
	in.Apply(p)
	assert.JSONEq(t, `[{"title":"a"}]`, string(p.FeaturedProjects))
}

func TestPortfolioInputPartialApply(t *testing.T) {
	p := NewPortfolio(1)
	off := false
	in := PortfolioInput{AvailableForHire: &off}
	require.Nil(t, in.Validate())
	in.Apply(p)

	assert.False(t, p.AvailableForHire)
	assert.True(t, p.OpenToRemote)
	assert.JSONEq(t, `[]`, string(p.FeaturedProjects))
}

func TestProjectInputDates(t *testing.T) {
	in := ProjectInput{Title: "CLI", Description: "A tool", StartDate: "2024-05-01", EndDate: "2024-04-01"}
	assert.Contains(t, in.Validate(), "end_date")

	in.EndDate = "2024-06-01"
	require.Nil(t, in.Validate())
	var p Project
	in.Apply(&p)
	require.NotNil(t, p.StartDate)
	assert.True(t, p.IsActive)
	assert.Equal(t, "2024-05-01", p.ToInput().StartDate)

	in.StartDate = "05/01/2024"
	assert.Contains(t, in.Validate(), "start_date")
}
