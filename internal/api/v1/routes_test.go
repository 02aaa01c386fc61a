package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/ballpark/internal/dataset"
	"github.com/stacklok/ballpark/internal/filtering"
	"github.com/stacklok/ballpark/internal/registry"
	"github.com/stacklok/ballpark/internal/service"
	"github.com/stacklok/ballpark/internal/service/mocks"
	"github.com/stacklok/ballpark/internal/session"
)

func floatPtr(f float64) *float64 {
	return &f
}

func newSessionStore() *session.Store {
	return session.NewStore(sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!")))
}

func panelView(id string) *service.PanelView {
	return &service.PanelView{
		ID:         id,
		Title:      "MLB Batting",
		Dataset:    "mlb-batters",
		ChartTitle: "MLB Batting Comparison",
		Notices:    []filtering.Notice{},
		RowCount:   1,
	}
}

func serve(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body["error"]
}

func TestListTabs(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	svc := mocks.NewMockDashboardService(ctrl)
	svc.EXPECT().ListTabs(gomock.Any()).Return([]service.Tab{
		{ID: "mlb-batting", Title: "MLB Batting", Panels: []service.PanelSummary{{ID: "mlb-batting"}}},
	}, nil)

	rr := serve(t, Router(svc, nil), httptest.NewRequest(http.MethodGet, "/tabs", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Tabs []service.Tab `json:"tabs"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Tabs, 1)
	assert.Equal(t, "mlb-batting", body.Tabs[0].Panels[0].ID)
}

func TestListDatasets(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	svc := mocks.NewMockDashboardService(ctrl)
	svc.EXPECT().ListDatasets(gomock.Any()).Return(nil, nil)

	rr := serve(t, Router(svc, nil), httptest.NewRequest(http.MethodGet, "/datasets", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"datasets":[]}`, rr.Body.String())
}

func TestGetDataset(t *testing.T) {
	t.Parallel()

	ds, err := dataset.New("mlb-batters", []string{"Name", "PA"}, [][]string{{"A", "50"}})
	require.NoError(t, err)

	tests := []struct {
		name       string
		path       string
		setupMock  func(*mocks.MockDashboardService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "found",
			path: "/datasets/mlb-batters",
			setupMock: func(m *mocks.MockDashboardService) {
				m.EXPECT().GetDataset(gomock.Any(), "mlb-batters").Return(ds, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"name":"mlb-batters","columns":[{"name":"Name","kind":"string"},{"name":"PA","kind":"int"}],"rows":[["A",50]]}`,
		},
		{
			name: "unknown",
			path: "/datasets/nope",
			setupMock: func(m *mocks.MockDashboardService) {
				m.EXPECT().GetDataset(gomock.Any(), "nope").Return(nil, fmt.Errorf("%w: nope", service.ErrDatasetNotFound))
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "load error",
			path: "/datasets/milb-pitchers",
			setupMock: func(m *mocks.MockDashboardService) {
				m.EXPECT().GetDataset(gomock.Any(), "milb-pitchers").
					Return(nil, &registry.LoadError{SourceID: "milb-pitchers", Path: "x.csv", Err: errors.New("missing")})
			},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "invalid id",
			path:       "/datasets/mlb%20batters",
			setupMock:  func(*mocks.MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			svc := mocks.NewMockDashboardService(ctrl)
			tt.setupMock(svc)

			rr := serve(t, Router(svc, nil), httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rr.Body.String())
			} else {
				assert.NotEmpty(t, decodeError(t, rr))
			}
		})
	}
}

func TestGetPanel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		wantState  *session.PanelState
		svcErr     error
		wantStatus int
	}{
		{
			name:       "no query",
			query:      "",
			wantState:  &session.PanelState{},
			wantStatus: http.StatusOK,
		},
		{
			name:  "full query",
			query: "?team=NYY&min=120&name=Aaron%20Judge&name=Juan%20Soto&metric=HR,AVG&search=ju*",
			wantState: &session.PanelState{
				Team:      "NYY",
				Threshold: floatPtr(120),
				Names:     []string{"Aaron Judge", "Juan Soto"},
				Metrics:   []string{"HR", "AVG"},
				Search:    "ju*",
			},
			wantStatus: http.StatusOK,
		},
		{
			name:  "name containing a comma",
			query: "?name=Smith%2C%20John&metric=HR,AVG",
			wantState: &session.PanelState{
				Names:   []string{"Smith, John"},
				Metrics: []string{"HR", "AVG"},
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "bad threshold",
			query:      "?min=abc",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative threshold",
			query:      "?min=-10",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown panel",
			query:      "",
			wantState:  &session.PanelState{},
			svcErr:     fmt.Errorf("%w: mlb-batting", service.ErrPanelNotFound),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid search",
			query:      "?search=%5Ba",
			wantState:  &session.PanelState{Search: "[a"},
			svcErr:     fmt.Errorf("%w: bad pattern", service.ErrInvalidQuery),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unexpected error",
			query:      "",
			wantState:  &session.PanelState{},
			svcErr:     errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			svc := mocks.NewMockDashboardService(ctrl)
			if tt.wantState != nil {
				var view *service.PanelView
				if tt.svcErr == nil {
					view = panelView("mlb-batting")
				}
				svc.EXPECT().GetPanel(gomock.Any(), "mlb-batting", *tt.wantState).Return(view, tt.svcErr)
			}

			rr := serve(t, Router(svc, nil), httptest.NewRequest(http.MethodGet, "/panels/mlb-batting"+tt.query, nil))
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			if tt.wantStatus != http.StatusOK {
				assert.NotEmpty(t, decodeError(t, rr))
				return
			}
			var got struct {
				ID         string `json:"id"`
				ChartTitle string `json:"chartTitle"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, "mlb-batting", got.ID)
			assert.Equal(t, "MLB Batting Comparison", got.ChartTitle)
		})
	}
}

func TestSessionPanel_RoundTrip(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	saved := session.PanelState{Team: "NYY", Threshold: floatPtr(50), Names: []string{"Aaron Judge"}, Metrics: []string{"HR"}}

	svc := mocks.NewMockDashboardService(ctrl)
	svc.EXPECT().GetPanel(gomock.Any(), "mlb-batting", saved).Return(panelView("mlb-batting"), nil).Times(2)
	svc.EXPECT().GetPanel(gomock.Any(), "mlb-pitching", session.PanelState{}).Return(panelView("mlb-pitching"), nil)

	router := Router(svc, newSessionStore())

	body := `{"team":"NYY","threshold":50,"names":["Aaron Judge"],"metrics":["HR"]}`
	put := serve(t, router, httptest.NewRequest(http.MethodPut, "/session/panels/mlb-batting", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, put.Code)

	var putBody sessionPanelResponse
	require.NoError(t, json.Unmarshal(put.Body.Bytes(), &putBody))
	assert.NotEmpty(t, putBody.SessionID)
	assert.Equal(t, saved, putBody.State)

	cookies := put.Result().Cookies()
	require.NotEmpty(t, cookies)

	get := httptest.NewRequest(http.MethodGet, "/session/panels/mlb-batting", nil)
	for _, c := range cookies {
		get.AddCookie(c)
	}
	rr := serve(t, router, get)
	require.Equal(t, http.StatusOK, rr.Code)

	var getBody sessionPanelResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &getBody))
	assert.Equal(t, putBody.SessionID, getBody.SessionID)
	assert.Equal(t, saved, getBody.State)

	// other panels of the same session keep their own state
	other := httptest.NewRequest(http.MethodGet, "/session/panels/mlb-pitching", nil)
	for _, c := range cookies {
		other.AddCookie(c)
	}
	rr = serve(t, router, other)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestSessionPanel_FreshSession(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	svc := mocks.NewMockDashboardService(ctrl)
	svc.EXPECT().GetPanel(gomock.Any(), "mlb-batting", session.PanelState{}).Return(panelView("mlb-batting"), nil)

	rr := serve(t, Router(svc, newSessionStore()), httptest.NewRequest(http.MethodGet, "/session/panels/mlb-batting", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body sessionPanelResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Empty(t, body.SessionID)
	assert.Equal(t, session.PanelState{}, body.State)
}

func TestPutSessionPanel_Rejected(t *testing.T) {
	t.Parallel()

	names := make([]string, 200)
	for i := range names {
		names[i] = fmt.Sprintf("Player %03d", i)
	}
	oversized, err := json.Marshal(session.PanelState{Names: names, Metrics: []string{"HR"}})
	require.NoError(t, err)

	tests := []struct {
		name       string
		body       string
		setupMock  func(*mocks.MockDashboardService)
		wantStatus int
	}{
		{
			name:       "malformed json",
			body:       `{"team":`,
			setupMock:  func(*mocks.MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"teams":"NYY"}`,
			setupMock:  func(*mocks.MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative threshold",
			body:       `{"threshold":-1}`,
			setupMock:  func(*mocks.MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown panel",
			body: `{}`,
			setupMock: func(m *mocks.MockDashboardService) {
				m.EXPECT().GetPanel(gomock.Any(), "mlb-batting", session.PanelState{}).
					Return(nil, service.ErrPanelNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "selection too large for the cookie",
			body: string(oversized),
			setupMock: func(m *mocks.MockDashboardService) {
				m.EXPECT().GetPanel(gomock.Any(), "mlb-batting", gomock.Any()).Return(panelView("mlb-batting"), nil)
			},
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			svc := mocks.NewMockDashboardService(ctrl)
			tt.setupMock(svc)

			rr := serve(t, Router(svc, newSessionStore()),
				httptest.NewRequest(http.MethodPut, "/session/panels/mlb-batting", strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Empty(t, rr.Result().Cookies())
		})
	}
}
