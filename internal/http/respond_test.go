package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRespondJSON_EncodeFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	a := &API{log: zap.New(core)}

	w := httptest.NewRecorder()
	a.respondJSON(w, http.StatusOK, map[string]any{"bad": make(chan int)})

	assert.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, logs.FilterMessage("failed to encode response").Len())
}
