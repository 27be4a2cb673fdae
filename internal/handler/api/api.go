package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/sphere-relay/backend/internal/model/message"
	"github.com/zhouzirui/sphere-relay/backend/internal/service/relay"
)

const pingTimeout = 3 * time.Second

type healthOutput struct {
	Status int `json:"-"`
	Body   struct {
		Status  string `json:"status" doc:"ok or degraded"`
		Version string `json:"version"`
		Backend string `json:"backend" doc:"snapshot persistence backend"`
		Error   string `json:"error,omitempty"`
		Viewers int    `json:"viewers"`
		Uptime  string `json:"uptime"`
	}
}

type statsOutput struct {
	Body struct {
		Viewers        int `json:"viewers"`
		ActiveMessages int `json:"activeMessages"`
	}
}

type messagesOutput struct {
	Body struct {
		Messages []message.Message `json:"messages"`
	}
}

// Register 注册只读HTTP接口
func Register(api huma.API, hub *relay.Hub, version string) {
	started := time.Now()

	huma.Register(api, huma.Operation{OperationID: "get-health", Method: http.MethodGet, Path: "/api/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			store := hub.Store()
			out := &healthOutput{Status: http.StatusOK}
			out.Body.Status = "ok"
			out.Body.Version = version
			out.Body.Backend = store.Backend()
			out.Body.Viewers = hub.ViewerCount()
			out.Body.Uptime = time.Since(started).Round(time.Second).String()

			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			defer cancel()
			if err := store.Ping(pingCtx); err != nil {
				logrus.WithError(err).WithField("backend", store.Backend()).Warn("snapshot backend unhealthy")
				out.Status = http.StatusServiceUnavailable
				out.Body.Status = "degraded"
				out.Body.Error = err.Error()
			}
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-stats", Method: http.MethodGet, Path: "/api/stats", Summary: "Viewer and message counts", Tags: []string{"Relay"}},
		func(ctx context.Context, input *struct{}) (*statsOutput, error) {
			out := &statsOutput{}
			out.Body.Viewers = hub.ViewerCount()
			out.Body.ActiveMessages = len(hub.Snapshot())
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "list-messages", Method: http.MethodGet, Path: "/api/messages", Summary: "List live messages", Description: "Returns the messages a newly joining viewer would be synced with.", Tags: []string{"Relay"}},
		func(ctx context.Context, input *struct{}) (*messagesOutput, error) {
			out := &messagesOutput{}
			out.Body.Messages = hub.Snapshot()
			if out.Body.Messages == nil {
				out.Body.Messages = []message.Message{}
			}
			return out, nil
		})
}
