package v1

import (
	"github.com/stacklok/ballpark/internal/service"
	"github.com/stacklok/ballpark/internal/session"
)

type tabsBody struct {
	Tabs []service.Tab `json:"tabs"`
}

func tabsResponse(tabs []service.Tab) tabsBody {
	if tabs == nil {
		tabs = []service.Tab{}
	}
	return tabsBody{Tabs: tabs}
}

type datasetsBody struct {
	Datasets []service.DatasetInfo `json:"datasets"`
}

func datasetsResponse(datasets []service.DatasetInfo) datasetsBody {
	if datasets == nil {
		datasets = []service.DatasetInfo{}
	}
	return datasetsBody{Datasets: datasets}
}

// sessionPanelResponse is a panel rendered from session state
type sessionPanelResponse struct {
	SessionID string             `json:"sessionId,omitempty"`
	State     session.PanelState `json:"state"`
	Panel     *service.PanelView `json:"panel"`
}
