package promotion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/model"
)

type stubSource struct {
	promotion *model.Promotion
	err       error
}

func (s *stubSource) GetActivePromotion(offerID string) (*model.Promotion, error) {
	return s.promotion, s.err
}

type stubChecker struct {
	eligible bool
	err      error
	calls    int
}

func (c *stubChecker) CheckURL(ctx context.Context, checkURL, walletAddress string) (bool, error) {
	c.calls++
	return c.eligible, c.err
}

const buyerAddress = "0x1111111111111111111111111111111111111111"

func testPromotion(checkType string) *model.Promotion {
	return &model.Promotion{
		ID:              "promo-1",
		OfferID:         "offer-1",
		IsActive:        true,
		DiscountPercent: 20,
		CheckType:       checkType,
	}
}

func TestEvaluateNoActivePromotion(t *testing.T) {
	evaluator := NewEvaluator(&stubSource{}, &stubChecker{eligible: true}, zap.NewNop())

	result, err := evaluator.Evaluate(context.Background(), "offer-1", buyerAddress, 100)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result.Eligible || result.DiscountPercent != 0 || result.PromotionID != nil {
		t.Errorf("expected no discount without a promotion, got %+v", result)
	}
}

func TestEvaluatePartialCollateralNeverEligible(t *testing.T) {
	checker := &stubChecker{eligible: true}
	evaluator := NewEvaluator(&stubSource{promotion: testPromotion(model.PromotionCheckTypeTest)}, checker, zap.NewNop())

	result, err := evaluator.Evaluate(context.Background(), "offer-1", buyerAddress, 40)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result.Eligible {
		t.Error("partial collateral must never be eligible")
	}
	if checker.calls != 0 {
		t.Error("external check performed for a partial order")
	}
}

func TestEvaluateTestCheckAlwaysEligible(t *testing.T) {
	evaluator := NewEvaluator(&stubSource{promotion: testPromotion(model.PromotionCheckTypeTest)}, &stubChecker{}, zap.NewNop())

	result, err := evaluator.Evaluate(context.Background(), "offer-1", buyerAddress, 100)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !result.Eligible || result.DiscountPercent != 20 {
		t.Errorf("expected eligible with discount 20, got %+v", result)
	}
	if result.PromotionID == nil || *result.PromotionID != "promo-1" {
		t.Errorf("expected promotion id snapshot, got %v", result.PromotionID)
	}
}

func TestEvaluateURLCheck(t *testing.T) {
	cases := []struct {
		name     string
		eligible bool
		err      error
		want     bool
	}{
		{"checker approves", true, nil, true},
		{"checker declines", false, nil, false},
		{"checker fails closed", false, errors.New("connection refused"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			checker := &stubChecker{eligible: tc.eligible, err: tc.err}
			evaluator := NewEvaluator(&stubSource{promotion: testPromotion(model.PromotionCheckTypeURL)}, checker, zap.NewNop())

			result, err := evaluator.Evaluate(context.Background(), "offer-1", buyerAddress, 100)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if result.Eligible != tc.want {
				t.Errorf("expected eligible=%v, got %+v", tc.want, result)
			}
			if checker.calls != 1 {
				t.Errorf("expected one check call, got %d", checker.calls)
			}
		})
	}
}

func TestEvaluateUnknownCheckTypeNotEligible(t *testing.T) {
	evaluator := NewEvaluator(&stubSource{promotion: testPromotion("bogus")}, &stubChecker{eligible: true}, zap.NewNop())

	result, err := evaluator.Evaluate(context.Background(), "offer-1", buyerAddress, 100)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result.Eligible {
		t.Error("unknown check type must fail closed")
	}
}

func TestEvaluateSourceErrorPropagates(t *testing.T) {
	wantErr := errors.New("database down")
	evaluator := NewEvaluator(&stubSource{err: wantErr}, &stubChecker{}, zap.NewNop())

	_, err := evaluator.Evaluate(context.Background(), "offer-1", buyerAddress, 100)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestHTTPCheckerEligible(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var req struct {
			Address string `json:"address"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Address != buyerAddress {
			t.Errorf("expected buyer address, got %s", req.Address)
		}
		json.NewEncoder(w).Encode(map[string]bool{"eligible": true})
	}))
	defer server.Close()

	checker := NewHTTPChecker(time.Second)
	eligible, err := checker.CheckURL(context.Background(), server.URL, buyerAddress)
	if err != nil {
		t.Fatalf("CheckURL failed: %v", err)
	}
	if !eligible {
		t.Error("expected eligible")
	}
}

func TestHTTPCheckerNotEligible(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"eligible": false})
	}))
	defer server.Close()

	checker := NewHTTPChecker(time.Second)
	eligible, err := checker.CheckURL(context.Background(), server.URL, buyerAddress)
	if err != nil {
		t.Fatalf("CheckURL failed: %v", err)
	}
	if eligible {
		t.Error("expected not eligible")
	}
}

func TestHTTPCheckerNon2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	checker := NewHTTPChecker(time.Second)
	if _, err := checker.CheckURL(context.Background(), server.URL, buyerAddress); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestHTTPCheckerMalformedResponseIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	checker := NewHTTPChecker(time.Second)
	if _, err := checker.CheckURL(context.Background(), server.URL, buyerAddress); err == nil {
		t.Fatal("expected error for malformed response")
	}
}

func TestHTTPCheckerUnreachableIsError(t *testing.T) {
	checker := NewHTTPChecker(100 * time.Millisecond)
	if _, err := checker.CheckURL(context.Background(), "http://127.0.0.1:1/eligible", buyerAddress); err == nil {
		t.Fatal("expected error for unreachable endpoint")
	}
}
