package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/agroledger/cropchain/internal/auditchain"
	"github.com/agroledger/cropchain/internal/exchange/model"
	"github.com/agroledger/cropchain/internal/exchange/repository"
	"github.com/agroledger/cropchain/internal/exchange/service"
	"github.com/agroledger/cropchain/internal/oracle"
)

var ctx = context.Background()

type fixture struct {
	svc   *service.TokenizationService
	chain *auditchain.MemoryChain
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	chain := auditchain.NewMemory()
	svc := service.NewTokenizationService(
		repository.NewMemoryCropRepository(),
		repository.NewMemoryTokenRepository(),
		repository.NewMemorySettlementRepository(),
		chain,
		oracle.NewStatic(),
		zap.NewNop(),
	)
	return &fixture{svc: svc, chain: chain}
}

func registerWheat(t *testing.T, f *fixture) *service.RegistrationResult {
	t.Helper()
	res, err := f.svc.RegisterCrop(ctx, &model.RegisterCropRequest{
		CropType:     "wheat",
		Quantity:     100,
		QualityGrade: model.GradeA,
		MarketID:     "M1",
		FarmerID:     "F1",
	})
	if err != nil {
		t.Fatalf("RegisterCrop: %v", err)
	}
	return res
}

func TestRegisterCrop_createsExactlyOneToken(t *testing.T) {
	f := newFixture(t)
	res := registerWheat(t, f)

	if res.Crop.CropID == "" || !strings.HasPrefix(res.Crop.CropID, "CROP_WHEAT_") {
		t.Errorf("crop id %q missing CROP_WHEAT_ prefix", res.Crop.CropID)
	}
	if res.Token.LinkedCropID != res.Crop.CropID {
		t.Errorf("token linked to %q, want %q", res.Token.LinkedCropID, res.Crop.CropID)
	}
	if res.Token.Status != model.TokenStatusCreated {
		t.Errorf("new token status = %q, want CREATED", res.Token.Status)
	}
	if res.Token.OwnerID != "F1" {
		t.Errorf("new token owner = %q, want farmer F1", res.Token.OwnerID)
	}
	if len(res.Token.AuditHash) != 64 {
		t.Errorf("token audit hash %q is not a 256-bit hex digest", res.Token.AuditHash)
	}

	tokens, err := f.svc.Tokens(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	linked := 0
	for _, tok := range tokens {
		if tok.LinkedCropID == res.Crop.CropID {
			linked++
		}
	}
	if linked != 1 {
		t.Errorf("expected exactly one token for the crop, got %d", linked)
	}
}

func TestRegisterCrop_emitsTwoAuditEventsInOrder(t *testing.T) {
	f := newFixture(t)
	registerWheat(t, f)

	trail, err := f.chain.Trail(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(trail) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(trail))
	}
	if trail[0].EventType != auditchain.EventCropRegistered {
		t.Errorf("first event = %q, want CROP_REGISTERED", trail[0].EventType)
	}
	if trail[1].EventType != auditchain.EventTokenCreated {
		t.Errorf("second event = %q, want TOKEN_CREATED", trail[1].EventType)
	}
	if trail[0].Actor != "F1" || trail[1].Actor != "F1" {
		t.Error("registration events must be attributed to the farmer")
	}
}

func TestListToken_happyPath(t *testing.T) {
	f := newFixture(t)
	res := registerWheat(t, f)

	token, err := f.svc.ListToken(ctx, &model.ListTokenRequest{TokenID: res.Token.TokenID, SellerID: "F1"})
	if err != nil {
		t.Fatalf("ListToken: %v", err)
	}
	if token.Status != model.TokenStatusListed {
		t.Errorf("status = %q, want LISTED", token.Status)
	}
}

func TestListToken_notFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ListToken(ctx, &model.ListTokenRequest{TokenID: "TOKEN_NOPE", SellerID: "F1"})
	assertFailure(t, err, service.KindNotFound, "Token not found")
}

func TestListToken_unauthorizedRegardlessOfStatus(t *testing.T) {
	f := newFixture(t)
	res := registerWheat(t, f)

	_, err := f.svc.ListToken(ctx, &model.ListTokenRequest{TokenID: res.Token.TokenID, SellerID: "F2"})
	assertFailure(t, err, service.KindUnauthorized, "Unauthorized: You don't own this token")

	// Status unchanged after the rejected attempt.
	detail, err := f.svc.Token(ctx, res.Token.TokenID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Token.Status != model.TokenStatusCreated {
		t.Errorf("rejected listing changed status to %q", detail.Token.Status)
	}

	// Ownership is checked before state, so a non-owner is rejected the
	// same way on a LISTED token.
	if _, err := f.svc.ListToken(ctx, &model.ListTokenRequest{TokenID: res.Token.TokenID, SellerID: "F1"}); err != nil {
		t.Fatal(err)
	}
	_, err = f.svc.ListToken(ctx, &model.ListTokenRequest{TokenID: res.Token.TokenID, SellerID: "F2"})
	assertFailure(t, err, service.KindUnauthorized, "Unauthorized: You don't own this token")
}

func TestListToken_rejectsNonCreatedStatus(t *testing.T) {
	f := newFixture(t)
	res := registerWheat(t, f)

	if _, err := f.svc.ListToken(ctx, &model.ListTokenRequest{TokenID: res.Token.TokenID, SellerID: "F1"}); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.ListToken(ctx, &model.ListTokenRequest{TokenID: res.Token.TokenID, SellerID: "F1"})
	assertFailure(t, err, service.KindInvalidState, "Token cannot be listed. Current status: LISTED")
}

func TestExecuteTrade_fullScenario(t *testing.T) {
	f := newFixture(t)
	res := registerWheat(t, f)

	if _, err := f.svc.ListToken(ctx, &model.ListTokenRequest{TokenID: res.Token.TokenID, SellerID: "F1"}); err != nil {
		t.Fatal(err)
	}

	settlement, err := f.svc.ExecuteTrade(ctx, &model.TradeRequest{TokenID: res.Token.TokenID, BuyerID: "B1"})
	if err != nil {
		t.Fatalf("ExecuteTrade: %v", err)
	}

	// Static oracle prices wheat at 22.0/kg; 100 kg settles for 2200.0.
	if settlement.PricePerKg != 22.0 {
		t.Errorf("price_per_kg = %v, want 22.0", settlement.PricePerKg)
	}
	if settlement.TotalAmount != settlement.PricePerKg*settlement.Quantity {
		t.Errorf("total_amount %v != price %v × quantity %v",
			settlement.TotalAmount, settlement.PricePerKg, settlement.Quantity)
	}
	if settlement.TotalAmount != 2200.0 {
		t.Errorf("total_amount = %v, want 2200.0", settlement.TotalAmount)
	}
	if settlement.SellerID != "F1" || settlement.BuyerID != "B1" {
		t.Errorf("settlement parties = %s→%s, want F1→B1", settlement.SellerID, settlement.BuyerID)
	}
	if settlement.Status != model.SettlementCompleted {
		t.Errorf("settlement status = %q, want COMPLETED", settlement.Status)
	}

	detail, err := f.svc.Token(ctx, res.Token.TokenID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Token.OwnerID != "B1" {
		t.Errorf("token owner after trade = %q, want B1", detail.Token.OwnerID)
	}
	if detail.Token.Status != model.TokenStatusSettled {
		t.Errorf("token status after trade = %q, want SETTLED", detail.Token.Status)
	}

	trail, err := f.chain.Trail(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []auditchain.EventType{
		auditchain.EventCropRegistered,
		auditchain.EventTokenCreated,
		auditchain.EventTokenListed,
		auditchain.EventTradeSettled,
	}
	if len(trail) != len(want) {
		t.Fatalf("expected %d audit entries, got %d", len(want), len(trail))
	}
	for i, ev := range want {
		if trail[i].EventType != ev {
			t.Errorf("trail[%d] = %q, want %q", i, trail[i].EventType, ev)
		}
	}

	verify, err := f.chain.Verify(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !verify.Valid {
		t.Errorf("audit chain invalid after scenario: %+v", verify)
	}
}

func TestExecuteTrade_rejectsUnlistedToken(t *testing.T) {
	f := newFixture(t)
	res := registerWheat(t, f)

	_, err := f.svc.ExecuteTrade(ctx, &model.TradeRequest{TokenID: res.Token.TokenID, BuyerID: "B1"})
	assertFailure(t, err, service.KindInvalidState, "Token not available for trade. Status: CREATED")

	// A failed trade leaves no settlement and no audit entry behind.
	settlements, err := f.svc.Settlements(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(settlements) != 0 {
		t.Errorf("rejected trade created %d settlements", len(settlements))
	}
	n, err := f.chain.Len(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 { // only the registration pair
		t.Errorf("rejected trade appended audit entries: trail has %d, want 2", n)
	}
}

func TestExecuteTrade_tokenNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ExecuteTrade(ctx, &model.TradeRequest{TokenID: "TOKEN_NOPE", BuyerID: "B1"})
	assertFailure(t, err, service.KindNotFound, "Token not found")
}

func TestStatusNeverMovesBackward(t *testing.T) {
	f := newFixture(t)
	res := registerWheat(t, f)

	_, _ = f.svc.ListToken(ctx, &model.ListTokenRequest{TokenID: res.Token.TokenID, SellerID: "F1"})
	_, _ = f.svc.ExecuteTrade(ctx, &model.TradeRequest{TokenID: res.Token.TokenID, BuyerID: "B1"})

	// SETTLED is terminal: neither the old owner nor the new one can
	// re-list, and a second trade is rejected.
	_, err := f.svc.ListToken(ctx, &model.ListTokenRequest{TokenID: res.Token.TokenID, SellerID: "B1"})
	assertFailure(t, err, service.KindInvalidState, "Token cannot be listed. Current status: SETTLED")

	_, err = f.svc.ExecuteTrade(ctx, &model.TradeRequest{TokenID: res.Token.TokenID, BuyerID: "B2"})
	assertFailure(t, err, service.KindInvalidState, "Token not available for trade. Status: SETTLED")
}

func TestExecuteTrade_usesOracleQuoteOverDefaults(t *testing.T) {
	chain := auditchain.NewMemory()
	quotes := oracle.NewMemory()
	quotes.Set("wheat", "M1", 31.25)
	svc := service.NewTokenizationService(
		repository.NewMemoryCropRepository(),
		repository.NewMemoryTokenRepository(),
		repository.NewMemorySettlementRepository(),
		chain,
		oracle.Fallback{quotes, oracle.NewStatic()},
		zap.NewNop(),
	)

	res, err := svc.RegisterCrop(ctx, &model.RegisterCropRequest{
		CropType: "wheat", Quantity: 40, QualityGrade: model.GradeB, MarketID: "M1", FarmerID: "F1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ListToken(ctx, &model.ListTokenRequest{TokenID: res.Token.TokenID, SellerID: "F1"}); err != nil {
		t.Fatal(err)
	}

	settlement, err := svc.ExecuteTrade(ctx, &model.TradeRequest{TokenID: res.Token.TokenID, BuyerID: "B1"})
	if err != nil {
		t.Fatal(err)
	}
	if settlement.PricePerKg != 31.25 {
		t.Errorf("price_per_kg = %v, want oracle quote 31.25", settlement.PricePerKg)
	}
	if settlement.TotalAmount != 31.25*40 {
		t.Errorf("total_amount = %v, want %v", settlement.TotalAmount, 31.25*40)
	}
}

func TestTokens_statusFilterIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	res := registerWheat(t, f)
	_, _ = f.svc.ListToken(ctx, &model.ListTokenRequest{TokenID: res.Token.TokenID, SellerID: "F1"})

	listed, err := f.svc.Tokens(ctx, "listed")
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 {
		t.Errorf("lowercase filter matched %d tokens, want 1", len(listed))
	}

	created, err := f.svc.Tokens(ctx, "CREATED")
	if err != nil {
		t.Fatal(err)
	}
	if len(created) != 0 {
		t.Errorf("CREATED filter matched %d tokens, want 0", len(created))
	}
}

func TestComputeStats(t *testing.T) {
	f := newFixture(t)
	res := registerWheat(t, f)
	registerWheat(t, f)
	_, _ = f.svc.ListToken(ctx, &model.ListTokenRequest{TokenID: res.Token.TokenID, SellerID: "F1"})
	if _, err := f.svc.ExecuteTrade(ctx, &model.TradeRequest{TokenID: res.Token.TokenID, BuyerID: "B1"}); err != nil {
		t.Fatal(err)
	}

	stats, err := f.svc.ComputeStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalCrops != 2 || stats.TotalTokens != 2 || stats.TotalSettlements != 1 {
		t.Errorf("counts = %d crops / %d tokens / %d settlements, want 2/2/1",
			stats.TotalCrops, stats.TotalTokens, stats.TotalSettlements)
	}
	if stats.TokenStatusBreakdown[model.TokenStatusSettled] != 1 ||
		stats.TokenStatusBreakdown[model.TokenStatusCreated] != 1 {
		t.Errorf("unexpected status breakdown: %v", stats.TokenStatusBreakdown)
	}
	if stats.TotalSettlementVolume != 2200.0 || stats.AvgSettlementValue != 2200.0 {
		t.Errorf("volume/avg = %v/%v, want 2200/2200", stats.TotalSettlementVolume, stats.AvgSettlementValue)
	}
}

func TestComputeComplianceReport(t *testing.T) {
	f := newFixture(t)
	res := registerWheat(t, f)
	_, _ = f.svc.ListToken(ctx, &model.ListTokenRequest{TokenID: res.Token.TokenID, SellerID: "F1"})
	if _, err := f.svc.ExecuteTrade(ctx, &model.TradeRequest{TokenID: res.Token.TokenID, BuyerID: "B1"}); err != nil {
		t.Fatal(err)
	}
	registerWheat(t, f)

	report, err := f.svc.ComputeComplianceReport(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !report.AuditTrailIntegrity.Valid {
		t.Error("compliance report shows broken audit trail")
	}
	if report.TotalRegisteredFarmers != 1 {
		t.Errorf("distinct farmers = %d, want 1", report.TotalRegisteredFarmers)
	}
	if report.TotalActiveTokens != 1 {
		t.Errorf("active tokens = %d, want 1 (second crop still CREATED)", report.TotalActiveTokens)
	}
	if report.TotalCompletedSettlements != 1 {
		t.Errorf("completed settlements = %d, want 1", report.TotalCompletedSettlements)
	}
}

func assertFailure(t *testing.T, err error, kind service.FailureKind, message string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected a failure, got nil error")
	}
	var f *service.Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected *service.Failure, got %T: %v", err, err)
	}
	if f.Kind != kind {
		t.Errorf("failure kind = %d, want %d", f.Kind, kind)
	}
	if f.Message != message {
		t.Errorf("failure message = %q, want %q", f.Message, message)
	}
}
