package utils

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

type errorBody struct {
	Error string `json:"error"`
}

// RespondError 发送JSON错误响应，用于huma之外的普通处理器
func RespondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Error: message}); err != nil {
		logrus.WithError(err).WithField("status", status).Warn("failed to encode error response")
	}
}
