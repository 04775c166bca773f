package seo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCourseJSONLD(t *testing.T) {
	t.Parallel()

	raw := JSON(Course(CourseInput{
		Name:        "IELTS Course",
		Description: "Get band 7+",
		URL:         "https://10minuteschool.com/products/ielts-course",
		Language:    "en",
		Provider:    "10 Minute School",
		Instructors: []string{"Munzereen Shahid"},
		Mode:        "online",
	}))

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	require.Equal(t, "Course", got["@type"])
	require.Equal(t, "en", got["inLanguage"])
	require.Equal(t, "10 Minute School", got["provider"].(map[string]any)["name"])
	instances := got["hasCourseInstance"].([]any)
	require.Len(t, instances, 1)
	require.Equal(t, "online", instances[0].(map[string]any)["courseMode"])
}

func TestCourseOmitsEmptyFields(t *testing.T) {
	t.Parallel()

	m := Course(CourseInput{Name: "x"})
	require.NotContains(t, m, "hasCourseInstance")
	require.NotContains(t, m, "provider")
	require.NotContains(t, m, "url")
}

func TestBreadcrumbList(t *testing.T) {
	t.Parallel()

	m := BreadcrumbList([]BreadcrumbItem{{Name: "Home", Item: "https://x/"}, {Name: "IELTS", Item: "https://x/products/ielts-course"}})
	items := m["itemListElement"].([]map[string]any)
	require.Equal(t, 2, items[1]["position"])
}

func TestOGLocale(t *testing.T) {
	t.Parallel()

	require.Equal(t, "bn_BD", OGLocale("bn"))
	require.Equal(t, "en_US", OGLocale("fr"))
}
