package handlers

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidators(t *testing.T) {
	assert.NotPanics(t, RegisterValidators)
	assert.NotPanics(t, RegisterValidators)

	type request struct {
		DisplayName string `json:"displayName" binding:"required,notblank"`
	}

	err := binding.Validator.ValidateStruct(&request{DisplayName: "   "})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "notblank", verrs[0].Tag())
	assert.Equal(t, "displayName", verrs[0].Field())

	assert.NoError(t, binding.Validator.ValidateStruct(&request{DisplayName: "Drinks"}))
}

// Every documented @Router path must be served by the router
func TestDocumentedRoutesAreMounted(t *testing.T) {
	s := newTestServer(t)
	s.router.GET("/health", HealthCheck)

	mounted := make(map[string]bool)
	for _, r := range s.router.Routes() {
		mounted[r.Method+" "+r.Path] = true
	}

	annotation := regexp.MustCompile(`@Router\s+(\S+)\s+\[(\w+)\]`)
	param := regexp.MustCompile(`\{(\w+)\}`)

	files, err := filepath.Glob("*.go")
	require.NoError(t, err)

	found := 0
	for _, file := range files {
		if strings.HasSuffix(file, "_test.go") {
			continue
		}
		src, err := os.ReadFile(file)
		require.NoError(t, err)
		for _, m := range annotation.FindAllStringSubmatch(string(src), -1) {
			found++
			path := param.ReplaceAllString(m[1], ":$1")
			key := strings.ToUpper(m[2]) + " " + path
			assert.True(t, mounted[key], "%s documents %s which is not mounted", file, key)
		}
	}
	assert.NotZero(t, found)
}
