package nav

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildMarksActive(t *testing.T) {
	t.Parallel()

	items := Build("/skills/communication")
	require.Len(t, items, len(Main))
	for _, it := range items {
		require.Equal(t, it.Href == "/skills", it.Active, it.Href)
	}

	for _, it := range Build("") {
		require.False(t, it.Active)
	}
	require.False(t, isActive("/skills", "/skillset"))
}

func TestProductCrumbs(t *testing.T) {
	t.Parallel()

	crumbs := ProductCrumbs("ielts-course", "")
	require.Len(t, crumbs, 2)
	require.Equal(t, "nav.home", crumbs[0].LabelKey)
	require.Equal(t, "Ielts Course", crumbs[1].Label)
	require.Equal(t, "/products/ielts-course", crumbs[1].Href)
	require.True(t, crumbs[1].Active)

	require.Equal(t, "IELTS Course by Munzereen Shahid", ProductCrumbs("ielts-course", "IELTS Course by Munzereen Shahid")[1].Label)

	home := ProductCrumbs("", "")
	require.Len(t, home, 1)
	require.True(t, home[0].Active)
}

func TestFooterContacts(t *testing.T) {
	t.Parallel()

	require.Len(t, Footer, 2)
	require.Equal(t, "tel:16910", Contacts[0].Href)
}
