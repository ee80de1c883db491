package i18n

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetCatalogFallback(t *testing.T) {
	base := GetCatalog(BaseLocale)
	require.NotNil(t, base)
	require.Same(t, base, GetCatalog(""))
	require.Same(t, base, GetCatalog("fr-FR"))
}

func TestGetCatalogMatchesRegionalVariant(t *testing.T) {
	custom := NewCatalog("pt-BR", map[Code]string{CodeNotFound: "Anúncio {{.ListingID}} não existe."})
	RegisterCatalog("pt-BR", custom)

	require.Same(t, custom, GetCatalog("pt-BR"))
	require.Equal(t, "pt-BR", GetCatalog("pt").Locale())
}

func TestFormatRendersMetadata(t *testing.T) {
	cat := GetCatalog(BaseLocale)
	got := cat.Format(CodeNotFound, map[string]string{"ListingID": "7"})
	require.Equal(t, "Listing 7 does not exist.", got)
}

func TestFormatFallbacks(t *testing.T) {
	cat := NewCatalog("de-DE", map[Code]string{
		"code": "hello {{.Name}}",
	})
	RegisterCatalog("de-DE", cat)

	require.Equal(t, "unknown", cat.Format("unknown", nil))
	require.Equal(t, "hello <no value>", cat.Format("code", nil))
}

func TestFormatTemplateErrorFallback(t *testing.T) {
	cat := NewCatalog("it-IT", map[Code]string{
		"broken": "{{ if .Name }}",
	})
	RegisterCatalog("it-IT", cat)

	require.Equal(t, "{{ if .Name }}", cat.Format("broken", map[string]string{"Name": "X"}))
}
