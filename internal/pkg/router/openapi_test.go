package router

import (
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/JobFox/internal/pkg/constants"
)

var fiberParam = regexp.MustCompile(`:([a-zA-Z_]+)`)

func loadOpenAPI(t *testing.T) *openapi3.T {
	t.Helper()
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile("../../../" + constants.OpenAPIPath)
	require.NoError(t, err)
	require.NoError(t, doc.Validate(loader.Context))
	return doc
}

func TestOpenAPIDocumentsEveryRoute(t *testing.T) {
	doc := loadOpenAPI(t)
	f := newAPI(t)

	const prefix = "/api/v1"
	checked := 0
	for _, route := range f.app.GetRoutes(true) {
		if route.Method == fiber.MethodHead || !strings.HasPrefix(route.Path, prefix+"/") {
			continue
		}
		path := strings.TrimSuffix(strings.TrimPrefix(route.Path, prefix), "/")
		path = fiberParam.ReplaceAllString(path, "{$1}")

		item := doc.Paths.Value(path)
		if !assert.NotNil(t, item, "undocumented path %s", path) {
			continue
		}
		assert.NotNil(t, item.GetOperation(route.Method), "undocumented operation %s %s", route.Method, path)
		checked++
	}
	assert.Greater(t, checked, 20)
}

func TestOpenAPIErrorKinds(t *testing.T) {
	doc := loadOpenAPI(t)
	schema := doc.Components.Schemas["Error"].Value.Properties["error"].Value

	kinds := make([]string, 0, len(schema.Enum))
	for _, v := range schema.Enum {
		kinds = append(kinds, v.(string))
	}
	for _, kind := range []string{"authentication_required", "authorization_denied", "validation_failed", "webhook_signature_invalid", "not_found", "conflict"} {
		assert.Contains(t, kinds, kind)
	}
	assert.NotNil(t, doc.Paths.Value("/billing/webhook").GetOperation(http.MethodPost))
}
