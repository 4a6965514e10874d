package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agroledger/cropchain/internal/auditchain"
	"github.com/agroledger/cropchain/internal/exchange/handler"
	"github.com/agroledger/cropchain/internal/exchange/repository"
	"github.com/agroledger/cropchain/internal/exchange/service"
	"github.com/agroledger/cropchain/internal/oracle"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := service.NewTokenizationService(
		repository.NewMemoryCropRepository(),
		repository.NewMemoryTokenRepository(),
		repository.NewMemorySettlementRepository(),
		auditchain.NewMemory(),
		oracle.NewStatic(),
		zap.NewNop(),
	)

	r := gin.New()
	r.Use(handler.RequestID())
	v1 := r.Group("/api/v1")
	handler.NewCropHandler(svc, zap.NewNop()).Register(v1)
	handler.NewTokenHandler(svc, zap.NewNop()).Register(v1)
	handler.NewSettlementHandler(svc, zap.NewNop()).Register(v1)
	handler.NewAuditHandler(svc, zap.NewNop()).Register(v1)
	handler.NewStatsHandler(svc, zap.NewNop()).Register(v1)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("non-JSON response %q: %v", w.Body.String(), err)
	}
	return w, resp
}

func registerWheat(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/crops/register", gin.H{
		"crop_type":     "wheat",
		"quantity":      100,
		"quality_grade": "A",
		"market_id":     "M1",
		"farmer_id":     "F1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	token := resp["token"].(map[string]any)
	return token["token_id"].(string)
}

func TestRegisterCrop_201(t *testing.T) {
	r := setupRouter(t)
	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/crops/register", gin.H{
		"crop_type":     "rice",
		"quantity":      50,
		"quality_grade": "B",
		"market_id":     "M2",
		"farmer_id":     "F9",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if resp["success"] != true {
		t.Errorf("expected success=true, got %v", resp["success"])
	}
	if resp["message"] != "Crop registered and tokenized successfully" {
		t.Errorf("unexpected message %q", resp["message"])
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID response header")
	}
}

func TestRegisterCrop_400_rejectsNonPositiveQuantity(t *testing.T) {
	r := setupRouter(t)
	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/crops/register", gin.H{
		"crop_type":     "wheat",
		"quantity":      -5,
		"quality_grade": "A",
		"market_id":     "M1",
		"farmer_id":     "F1",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestListToken_flow(t *testing.T) {
	r := setupRouter(t)
	tokenID := registerWheat(t, r)

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/tokens/list", gin.H{
		"token_id":  tokenID,
		"seller_id": "F1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if resp["message"] != "Token listed successfully" {
		t.Errorf("unexpected message %q", resp["message"])
	}
}

func TestListToken_403_nonOwner(t *testing.T) {
	r := setupRouter(t)
	tokenID := registerWheat(t, r)

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/tokens/list", gin.H{
		"token_id":  tokenID,
		"seller_id": "F2",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if resp["message"] != "Unauthorized: You don't own this token" {
		t.Errorf("unexpected message %q", resp["message"])
	}
}

func TestListToken_404_unknownToken(t *testing.T) {
	r := setupRouter(t)
	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/tokens/list", gin.H{
		"token_id":  "TOKEN_NOPE",
		"seller_id": "F1",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestExecuteTrade_flowAndAuditTrail(t *testing.T) {
	r := setupRouter(t)
	tokenID := registerWheat(t, r)
	doJSON(t, r, http.MethodPost, "/api/v1/tokens/list", gin.H{"token_id": tokenID, "seller_id": "F1"})

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/settlements/execute", gin.H{
		"token_id": tokenID,
		"buyer_id": "B1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	settlement := resp["settlement"].(map[string]any)
	if settlement["total_amount"].(float64) != 2200.0 {
		t.Errorf("total_amount = %v, want 2200", settlement["total_amount"])
	}
	if settlement["settlement_status"] != "COMPLETED" {
		t.Errorf("settlement_status = %v, want COMPLETED", settlement["settlement_status"])
	}

	w, resp = doJSON(t, r, http.MethodGet, "/api/v1/audit/trail", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("trail: expected 200, got %d", w.Code)
	}
	if n := resp["total_events"].(float64); n != 4 {
		t.Errorf("total_events = %v, want 4", n)
	}

	w, resp = doJSON(t, r, http.MethodGet, "/api/v1/audit/verify", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d", w.Code)
	}
	if resp["valid"] != true {
		t.Errorf("expected valid=true, got %v", resp["valid"])
	}
}

func TestExecuteTrade_409_unlistedToken(t *testing.T) {
	r := setupRouter(t)
	tokenID := registerWheat(t, r)

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/settlements/execute", gin.H{
		"token_id": tokenID,
		"buyer_id": "B1",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if resp["message"] != "Token not available for trade. Status: CREATED" {
		t.Errorf("unexpected message %q", resp["message"])
	}
}

func TestTokensByStatus_uppercasesFilter(t *testing.T) {
	r := setupRouter(t)
	tokenID := registerWheat(t, r)
	doJSON(t, r, http.MethodPost, "/api/v1/tokens/list", gin.H{"token_id": tokenID, "seller_id": "F1"})

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/tokens/status/listed", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if n := resp["total"].(float64); n != 1 {
		t.Errorf("lowercase status filter matched %v tokens, want 1", n)
	}
}

func TestStats_afterScenario(t *testing.T) {
	r := setupRouter(t)
	tokenID := registerWheat(t, r)
	doJSON(t, r, http.MethodPost, "/api/v1/tokens/list", gin.H{"token_id": tokenID, "seller_id": "F1"})
	doJSON(t, r, http.MethodPost, "/api/v1/settlements/execute", gin.H{"token_id": tokenID, "buyer_id": "B1"})

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	stats := resp["stats"].(map[string]any)
	if stats["total_settlement_volume"].(float64) != 2200.0 {
		t.Errorf("total_settlement_volume = %v, want 2200", stats["total_settlement_volume"])
	}

	w, resp = doJSON(t, r, http.MethodGet, "/api/v1/compliance/report", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("compliance: expected 200, got %d", w.Code)
	}
	report := resp["compliance_report"].(map[string]any)
	integrity := report["audit_trail_integrity"].(map[string]any)
	if integrity["valid"] != true {
		t.Errorf("compliance integrity valid = %v, want true", integrity["valid"])
	}
}

func TestGetCrop_404(t *testing.T) {
	r := setupRouter(t)
	w, _ := doJSON(t, r, http.MethodGet, "/api/v1/crops/CROP_NOPE", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
