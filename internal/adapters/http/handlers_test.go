package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	fws "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/arcglobe/internal/adapters/http"
	"github.com/samirrijal/arcglobe/internal/core/domain"
	"github.com/samirrijal/arcglobe/internal/core/usecases"
	"github.com/samirrijal/arcglobe/internal/routetable"
)

// ---- Mocks ----

type mockSource struct {
	routesFn func(ctx context.Context) ([]domain.Route, error)
}

func (m *mockSource) Routes(ctx context.Context) ([]domain.Route, error) {
	if m.routesFn != nil {
		return m.routesFn(ctx)
	}
	return nil, nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Routes: usecases.NewRouteTableService(routetable.Static{}),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func failingDeps() *handler.Dependencies {
	return makeDeps(func(d *handler.Dependencies) {
		d.Routes = usecases.NewRouteTableService(&mockSource{
			routesFn: func(ctx context.Context) ([]domain.Route, error) {
				return nil, errors.New("db down")
			},
		})
	})
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

type routesPage struct {
	Data       []domain.Route `json:"data"`
	Pagination struct {
		Offset int `json:"offset"`
		Limit  int `json:"limit"`
		Total  int `json:"total"`
	} `json:"pagination"`
}

// ---- Route table handler tests ----

func TestListRoutes_Success(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/routes", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result routesPage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 2 || len(result.Data) != 2 {
		t.Fatalf("expected 2 routes, got %+v", result.Pagination)
	}
	if result.Data[0].Origin.Name != "杭州" {
		t.Errorf("expected 杭州, got %s", result.Data[0].Origin.Name)
	}
	if got := result.Data[0].Destinations[6].Lon; got != 668.1445312499999 {
		t.Errorf("expected anomalous longitude preserved, got %v", got)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}
}

func TestListRoutes_Pagination(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/routes?offset=1&limit=1", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result routesPage
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Data) != 1 || result.Data[0].Origin.Name != "北京" {
		t.Fatalf("expected page with 北京, got %+v", result.Data)
	}
	if result.Pagination.Offset != 1 || result.Pagination.Limit != 1 || result.Pagination.Total != 2 {
		t.Errorf("unexpected pagination %+v", result.Pagination)
	}
	link := resp.Header.Get("Link")
	if !strings.Contains(link, `rel="prev"`) || strings.Contains(link, `rel="next"`) {
		t.Errorf("unexpected Link header %q", link)
	}
}

func TestListRoutes_OffsetPastEnd(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/routes?offset=10", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result routesPage
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Data) != 0 || result.Pagination.Total != 2 {
		t.Errorf("expected empty page, got %+v", result)
	}
}

func TestListRoutes_SourceError(t *testing.T) {
	app := setupApp(failingDeps())

	req := httptest.NewRequest("GET", "/v1/routes", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	var apiErr handler.APIError
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "internal_error" {
		t.Errorf("expected internal_error, got %s", apiErr.Code)
	}
	if strings.Contains(apiErr.Message, "db down") {
		t.Error("internal error leaked to client")
	}
	if apiErr.RequestID == "" {
		t.Error("expected request id in error")
	}
}

func TestGetRoute_Success(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/routes/1", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var route domain.Route
	json.NewDecoder(resp.Body).Decode(&route)
	if route.Origin.Name != "北京" || len(route.Destinations) != 4 {
		t.Errorf("unexpected route %+v", route)
	}
}

func TestGetRoute_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/routes/7", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	var apiErr handler.APIError
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "not_found" {
		t.Errorf("expected not_found, got %s", apiErr.Code)
	}
}

func TestGetRoute_BadIndex(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/routes/abc", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAudit_Success(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/routes/audit", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var report struct {
		Valid     bool                `json:"valid"`
		Points    int                 `json:"points"`
		Errors    []domain.AuditIssue `json:"errors"`
		Anomalies []domain.AuditIssue `json:"anomalies"`
	}
	json.NewDecoder(resp.Body).Decode(&report)
	if !report.Valid || report.Points != 13 {
		t.Errorf("unexpected report %+v", report)
	}
	if len(report.Anomalies) != 1 || report.Anomalies[0].Name != "巴西" {
		t.Errorf("expected 巴西 anomaly, got %+v", report.Anomalies)
	}
}

func TestStats_Success(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/stats", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var stats domain.TableStats
	json.NewDecoder(resp.Body).Decode(&stats)
	if stats.Routes != 2 || stats.Destinations != 11 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestDeprecatedTableAlias(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/table", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Deprecation") != "true" {
		t.Error("expected Deprecation header")
	}
	if resp.Header.Get("Sunset") == "" {
		t.Error("expected Sunset header")
	}
	if !strings.Contains(resp.Header.Get("Link"), `</v1/routes>; rel="successor-version"`) {
		t.Errorf("expected successor link, got %q", resp.Header.Get("Link"))
	}
}

// ---- Middleware tests ----

func TestETag_NotModified(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/routes/0", nil), -1)
	etag := resp.Header.Get("ETag")
	if !strings.HasPrefix(etag, `W/"`) {
		t.Fatalf("expected weak ETag, got %q", etag)
	}

	req := httptest.NewRequest("GET", "/v1/routes/0", nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Fatalf("expected 304, got %d", resp.StatusCode)
	}
	if len(readBody(t, resp.Body)) != 0 {
		t.Error("expected empty body on 304")
	}
}

func TestSecurityHeaders(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options")
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

// ---- Health tests ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestReady_StaticOnly(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Checks["routes"] != "ok" || body.Checks["database"] != "not configured" {
		t.Errorf("unexpected checks %+v", body.Checks)
	}
}

func TestReady_BackendDown(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.DB = &mockPinger{}
		d.Cache = &mockPinger{err: errors.New("connection refused")}
	}))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}

	var body struct {
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Checks["database"] != "ok" || !strings.HasPrefix(body.Checks["cache"], "error") {
		t.Errorf("unexpected checks %+v", body.Checks)
	}
}

func TestReady_SourceError(t *testing.T) {
	app := setupApp(failingDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

// ---- GraphQL tests ----

func postGraphQL(t *testing.T, app *fiber.App, query string) map[string]any {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"query": query})
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out map[string]any
	if err := json.Unmarshal(readBody(t, resp.Body), &out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestGraphQL_Routes(t *testing.T) {
	app := setupApp(makeDeps())

	out := postGraphQL(t, app, `{ routes { origin { name lat lon } destinations { name } } }`)
	if out["errors"] != nil {
		t.Fatalf("unexpected errors: %v", out["errors"])
	}
	routes := out["data"].(map[string]any)["routes"].([]any)
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}
	origin := routes[0].(map[string]any)["origin"].(map[string]any)
	if origin["name"] != "杭州" || origin["lat"] != 30.246026 {
		t.Errorf("unexpected origin %v", origin)
	}
	if n := len(routes[1].(map[string]any)["destinations"].([]any)); n != 4 {
		t.Errorf("expected 4 destinations, got %d", n)
	}
}

func TestGraphQL_RouteByIndex(t *testing.T) {
	app := setupApp(makeDeps())

	out := postGraphQL(t, app, `{ route(index: 0) { destinations { name lat lon } } }`)
	if out["errors"] != nil {
		t.Fatalf("unexpected errors: %v", out["errors"])
	}
	dests := out["data"].(map[string]any)["route"].(map[string]any)["destinations"].([]any)
	first := dests[0].(map[string]any)
	if first["name"] != "曼谷" || first["lat"] != 22.0 || first["lon"] != 100.49074172973633 {
		t.Errorf("unexpected first destination %v", first)
	}
}

func TestGraphQL_RouteOutOfRange(t *testing.T) {
	app := setupApp(makeDeps())

	out := postGraphQL(t, app, `{ route(index: 9) { origin { name } } }`)
	if out["errors"] == nil {
		t.Fatal("expected errors for out-of-range index")
	}
}

func TestGraphQL_Audit(t *testing.T) {
	app := setupApp(makeDeps())

	out := postGraphQL(t, app, `{ audit { valid points anomalies { severity path name value } } }`)
	if out["errors"] != nil {
		t.Fatalf("unexpected errors: %v", out["errors"])
	}
	audit := out["data"].(map[string]any)["audit"].(map[string]any)
	if audit["valid"] != true {
		t.Errorf("expected valid audit, got %v", audit)
	}
	anomalies := audit["anomalies"].([]any)
	if len(anomalies) != 1 {
		t.Fatalf("expected 1 anomaly, got %d", len(anomalies))
	}
	a := anomalies[0].(map[string]any)
	if a["severity"] != "anomaly" || a["name"] != "巴西" || a["value"] != 668.1445312499999 {
		t.Errorf("unexpected anomaly %v", a)
	}
}

func TestGraphQL_BadBody(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/graphql", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Docs ----

func TestDocs_OpenAPIServed(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/docs/openapi.yaml", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(readBody(t, resp.Body)), "openapi: 3.0.3") {
		t.Error("expected openapi document")
	}
}

// ---- Metrics ----

func TestMetrics_Exposed(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/routes/audit", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := string(readBody(t, resp.Body))
	for _, want := range []string{
		"arcglobe_http_requests_total",
		`arcglobe_table_audit_issues{severity="anomaly"} 1`,
		`arcglobe_table_audit_issues{severity="error"} 0`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in metrics output", want)
		}
	}
}

func TestListRoutes_HugeOffsetHasNoNextLink(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/routes?offset=9223372036854775807&limit=100", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	link := resp.Header.Get("Link")
	if strings.Contains(link, `rel="next"`) {
		t.Errorf("expected no next link past the end, got %q", link)
	}
	if strings.Contains(link, "offset=-") {
		t.Errorf("expected no negative offsets, got %q", link)
	}
}

func TestErrorResponse_CarriesRequestID(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/routes/99", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var apiErr handler.APIError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if apiErr.RequestID == "" {
		t.Fatal("expected request_id in error body")
	}
	if got := resp.Header.Get(fiber.HeaderXRequestID); got != apiErr.RequestID {
		t.Errorf("expected request_id %q to match header %q", apiErr.RequestID, got)
	}
}

// ---- WebSocket ----

type wsFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dialWS(t *testing.T) *fws.Conn {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	app := setupApp(makeDeps())
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	conn, _, err := fws.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *fws.Conn) wsFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var f wsFrame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestWebSocket_SnapshotOnConnect(t *testing.T) {
	conn := dialWS(t)

	f := readFrame(t, conn)
	if f.Type != "snapshot" {
		t.Fatalf("expected snapshot frame, got %q", f.Type)
	}
	var routes []domain.Route
	if err := json.Unmarshal(f.Data, &routes); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(routes) != 2 {
		t.Errorf("expected 2 routes, got %d", len(routes))
	}
}

func TestWebSocket_Actions(t *testing.T) {
	conn := dialWS(t)
	readFrame(t, conn) // snapshot on connect

	if err := conn.WriteJSON(map[string]string{"action": "audit"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := readFrame(t, conn)
	if f.Type != "audit" {
		t.Fatalf("expected audit frame, got %q", f.Type)
	}
	var report domain.AuditReport
	if err := json.Unmarshal(f.Data, &report); err != nil {
		t.Fatalf("decode audit: %v", err)
	}
	if len(report.Anomalies) != 1 || len(report.Errors) != 0 {
		t.Errorf("expected 1 anomaly and no errors, got %+v", report)
	}

	if err := conn.WriteJSON(map[string]string{"action": "snapshot"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if f := readFrame(t, conn); f.Type != "snapshot" {
		t.Errorf("expected snapshot frame, got %q", f.Type)
	}

	if err := conn.WriteJSON(map[string]string{"action": "replay"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	f = readFrame(t, conn)
	if f.Type != "error" || !strings.Contains(string(f.Data), "unknown action: replay") {
		t.Errorf("expected unknown action error, got %s %s", f.Type, f.Data)
	}

	if err := conn.WriteMessage(fws.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	f = readFrame(t, conn)
	if f.Type != "error" || !strings.Contains(string(f.Data), "invalid JSON") {
		t.Errorf("expected invalid JSON error, got %s %s", f.Type, f.Data)
	}
}
