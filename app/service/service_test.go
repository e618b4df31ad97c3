package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-letters/app/entity"
	"github.com/vibast-solutions/ms-go-letters/app/policy"
	"github.com/vibast-solutions/ms-go-letters/app/provider"
	"github.com/vibast-solutions/ms-go-letters/app/types"
	"github.com/vibast-solutions/ms-go-letters/config"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	svc       *LetterService
	store     *memStore
	provider  *fakeProvider
	publisher *fakePublisher
	objects   *fakeObjects
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		store:     newMemStore(),
		provider:  &fakeProvider{},
		publisher: &fakePublisher{},
		objects:   &fakeObjects{},
	}
	env.svc = NewLetterService(
		env.store,
		provider.NewRegistry(env.provider),
		env.publisher,
		fakeRenderer{},
		env.objects,
		config.PaymentsConfig{LetterPrice: decimal.RequireFromString("100.00"), Currency: "TRY"},
		config.JobsConfig{BatchSize: 2, PIICutoffDays: 30},
		"test",
	)
	env.svc.now = func() time.Time { return testNow }
	return env
}

func validOrderRequest() *types.CreateOrderRequest {
	return &types.CreateOrderRequest{
		LetterText:    "Merhaba, umarım iyisindir. Seni çok özledik.",
		RecipientName: "Ahmet Yılmaz",
		PrisonName:    "Silivri Cezaevi",
		City:          "İstanbul",
		AddressLine:   "Silivri Kapalı Cezaevi C Blok",
		SenderName:    "Ayşe",
		SenderCity:    "Ankara",
	}
}

func (env *testEnv) createOrder(t *testing.T) *entity.Order {
	t.Helper()
	order, err := env.svc.CreateOrder(context.Background(), validOrderRequest())
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func (env *testEnv) seedOrder(status string, createdAt time.Time) *entity.Order {
	code, _ := GenerateTrackingCode()
	recipient := "Mehmet Demir"
	order := &entity.Order{
		ID:              "order-" + strings.ToLower(code),
		TrackingCode:    code,
		LetterText:      "Sevgili kardeşim, bu mektup sana.",
		RecipientName:   &recipient,
		PrisonName:      "Maltepe Cezaevi",
		City:            "İstanbul",
		AddressLine:     "Maltepe L Tipi Kapalı Cezaevi",
		Status:          status,
		PaymentStatus:   entity.PaymentStatusPending,
		TotalAmount:     decimal.RequireFromString("100.00"),
		Currency:        "TRY",
		IsGuest:         true,
		CreatedAt:       createdAt,
		StatusUpdatedAt: createdAt,
	}
	env.store.data.orders[order.ID] = order
	env.store.data.public[code] = &entity.OrderPublic{
		TrackingCode:    code,
		OrderID:         order.ID,
		Status:          status,
		PublicStepLabel: PublicStepLabel(status),
		CreatedAt:       createdAt,
		StatusUpdatedAt: createdAt,
	}
	return order
}

func TestCreateOrderWritesAllRecords(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)

	if len(order.TrackingCode) != TrackingCodeLength {
		t.Fatalf("unexpected tracking code: %q", order.TrackingCode)
	}
	if order.Status != entity.OrderStatusCreated || order.PaymentStatus != entity.PaymentStatusPending {
		t.Fatalf("unexpected statuses: %s/%s", order.Status, order.PaymentStatus)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("100")) || order.Currency != "TRY" {
		t.Fatalf("unexpected amount: %s %s", order.TotalAmount, order.Currency)
	}
	if !order.IsGuest || order.UserID != nil {
		t.Fatal("expected guest order")
	}

	stored := env.store.data.orders[order.ID]
	if stored == nil || stored.LetterText == "" {
		t.Fatal("expected stored order with letter text")
	}

	public := env.store.data.public[order.TrackingCode]
	if public == nil {
		t.Fatal("expected public projection")
	}
	if public.PublicStepLabel != CreatedStepLabel || public.Status != entity.OrderStatusCreated {
		t.Fatalf("unexpected projection: %+v", public)
	}
	if public.RecipientName == nil || *public.RecipientName != "Ahmet Y." {
		t.Fatalf("expected masked recipient, got %v", public.RecipientName)
	}

	if len(env.store.data.history) != 1 || env.store.data.history[0].FromStatus != nil || env.store.data.history[0].ToStatus != entity.OrderStatusCreated {
		t.Fatalf("unexpected history: %+v", env.store.data.history)
	}
	if len(env.store.data.audit) != 1 || env.store.data.audit[0].Action != AuditOrderCreated {
		t.Fatalf("unexpected audit: %+v", env.store.data.audit)
	}
	if len(env.publisher.published) != 1 || env.publisher.published[0].TrackingCode != order.TrackingCode {
		t.Fatalf("expected projection mirror, got %+v", env.publisher.published)
	}
}

func TestCreateOrderIsIdempotentByClientRequestID(t *testing.T) {
	env := newTestEnv(t)
	req := validOrderRequest()
	req.ClientRequestId = "req-1"
	req.UserId = "user-1"

	first, err := env.svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	second, err := env.svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}

	if first.ID != second.ID || first.TrackingCode != second.TrackingCode {
		t.Fatalf("expected same order, got %s and %s", first.ID, second.ID)
	}
	if len(env.store.data.orders) != 1 {
		t.Fatalf("expected one order, got %d", len(env.store.data.orders))
	}
	if first.IsGuest || first.UserID == nil || *first.UserID != "user-1" {
		t.Fatal("expected order bound to user")
	}
}

func TestCreateOrderRetriesTrackingCodeCollision(t *testing.T) {
	env := newTestEnv(t)
	existing := env.seedOrder(entity.OrderStatusCreated, testNow)

	codes := []string{existing.TrackingCode, "BBBBBBBBBBBB"}
	env.svc.newTrackingCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	order, err := env.svc.CreateOrder(context.Background(), validOrderRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if order.TrackingCode != "BBBBBBBBBBBB" {
		t.Fatalf("expected second code, got %s", order.TrackingCode)
	}
	if len(env.store.data.history) != 1 {
		t.Fatalf("expected rolled back first attempt, got %d history rows", len(env.store.data.history))
	}
}

func TestCreateOrderGivesUpAfterRepeatedCollisions(t *testing.T) {
	env := newTestEnv(t)
	existing := env.seedOrder(entity.OrderStatusCreated, testNow)
	env.svc.newTrackingCode = func() (string, error) { return existing.TrackingCode, nil }

	_, err := env.svc.CreateOrder(context.Background(), validOrderRequest())
	if !errors.Is(err, ErrTrackingCodeSpace) {
		t.Fatalf("expected ErrTrackingCodeSpace, got %v", err)
	}
}

func TestCreateOrderRejectsMissingFields(t *testing.T) {
	env := newTestEnv(t)
	req := validOrderRequest()
	req.AddressLine = "  "

	if _, err := env.svc.CreateOrder(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestCreateOrderSurvivesMirrorFailure(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("firestore down")

	order := env.createOrder(t)
	if env.store.data.orders[order.ID] == nil {
		t.Fatal("expected order to be committed")
	}
}

func TestGenerateTrackingCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := GenerateTrackingCode()
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if len(code) != TrackingCodeLength {
			t.Fatalf("unexpected length: %q", code)
		}
		if strings.ContainsAny(code, "O0I1") {
			t.Fatalf("code contains ambiguous characters: %q", code)
		}
		for _, r := range code {
			if !strings.ContainsRune(trackingAlphabet, r) {
				t.Fatalf("code contains %q outside alphabet", r)
			}
		}
		seen[code] = true
	}
	if len(seen) < 199 {
		t.Fatalf("expected unique codes, got %d distinct", len(seen))
	}
}

func TestMaskRecipientName(t *testing.T) {
	cases := map[string]string{
		"Ahmet Yılmaz":        "Ahmet Y.",
		"Ali Veli Şahin":      "Ali Ş.",
		"Cem":                 "Cem",
		"  İsmail   Öztürk  ": "İsmail Ö.",
	}
	for in, want := range cases {
		got := MaskRecipientName(in)
		if got == nil || *got != want {
			t.Fatalf("MaskRecipientName(%q) = %v, want %q", in, got, want)
		}
	}
	if MaskRecipientName("   ") != nil {
		t.Fatal("expected nil for empty name")
	}
}

func TestTrackOrder(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)

	public, err := env.svc.TrackOrder(context.Background(), " "+strings.ToLower(order.TrackingCode)+" ")
	if err != nil {
		t.Fatalf("track failed: %v", err)
	}
	if public.TrackingCode != order.TrackingCode {
		t.Fatalf("unexpected projection: %+v", public)
	}

	if _, err := env.svc.TrackOrder(context.Background(), "NOPE23456789"); !errors.Is(err, ErrTrackingNotFound) {
		t.Fatalf("expected ErrTrackingNotFound, got %v", err)
	}
	if _, err := env.svc.TrackOrder(context.Background(), ""); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestCreatePaymentIntent(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)

	payment, err := env.svc.CreatePaymentIntent(context.Background(), &types.CreatePaymentIntentRequest{OrderId: order.ID})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}
	if payment.Token != "tok_"+order.ID || payment.Status != entity.PaymentIntentPending {
		t.Fatalf("unexpected payment: %+v", payment)
	}
	if payment.Provider != provider.IyzicoName || !payment.Amount.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("unexpected payment details: %+v", payment)
	}
	if env.store.data.orders[order.ID].PaymentStatus != entity.PaymentStatusPaymentPending {
		t.Fatalf("expected PAYMENT_PENDING, got %s", env.store.data.orders[order.ID].PaymentStatus)
	}

	again, err := env.svc.CreatePaymentIntent(context.Background(), &types.CreatePaymentIntentRequest{OrderId: order.ID})
	if err != nil {
		t.Fatalf("second intent failed: %v", err)
	}
	if again.Token != payment.Token || env.provider.checkouts != 1 {
		t.Fatalf("expected pending intent reuse, checkouts=%d", env.provider.checkouts)
	}
}

func TestCreatePaymentIntentErrors(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.CreatePaymentIntent(context.Background(), &types.CreatePaymentIntentRequest{OrderId: "missing"}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}

	paid := env.seedOrder(entity.OrderStatusPaid, testNow)
	paid.PaymentStatus = entity.PaymentStatusPaid
	if _, err := env.svc.CreatePaymentIntent(context.Background(), &types.CreatePaymentIntentRequest{OrderId: paid.ID}); !errors.Is(err, ErrOrderAlreadyPaid) {
		t.Fatalf("expected ErrOrderAlreadyPaid, got %v", err)
	}

	failing := env.seedOrder(entity.OrderStatusCreated, testNow)
	env.provider.createErr = errors.New("provider down")
	if _, err := env.svc.CreatePaymentIntent(context.Background(), &types.CreatePaymentIntentRequest{OrderId: failing.ID}); err == nil {
		t.Fatal("expected provider error")
	}
	if env.store.data.orders[failing.ID].PaymentStatus != entity.PaymentStatusPending {
		t.Fatal("expected order untouched after provider failure")
	}
}

func TestCreatePaymentIntentFallsBackToConfiguredPrice(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(entity.OrderStatusCreated, testNow)
	order.TotalAmount = decimal.Zero

	payment, err := env.svc.CreatePaymentIntent(context.Background(), &types.CreatePaymentIntentRequest{OrderId: order.ID})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}
	if !payment.Amount.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("expected fallback amount, got %s", payment.Amount)
	}
}

func TestCreatePaymentIntentReopensFailedToken(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)
	env.store.data.payments["tok_"+order.ID] = &entity.Payment{
		Token:   "tok_" + order.ID,
		OrderID: order.ID,
		Status:  entity.PaymentIntentFailed,
	}
	env.store.data.orders[order.ID].PaymentStatus = entity.PaymentStatusFailed

	payment, err := env.svc.CreatePaymentIntent(context.Background(), &types.CreatePaymentIntentRequest{OrderId: order.ID})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}
	if payment.Status != entity.PaymentIntentPending {
		t.Fatalf("expected reopened intent, got %s", payment.Status)
	}
}

func payOrder(t *testing.T, env *testEnv, order *entity.Order, status string) *WebhookResult {
	t.Helper()
	payment, err := env.svc.CreatePaymentIntent(context.Background(), &types.CreatePaymentIntentRequest{OrderId: order.ID})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}
	paymentID := "pay-1"
	env.provider.event = &provider.WebhookEvent{
		Token:             payment.Token,
		ProviderPaymentID: &paymentID,
		ProviderStatus:    status,
		Succeeded:         strings.EqualFold(status, "SUCCESS"),
	}
	result, err := env.svc.HandlePaymentWebhook(context.Background(), &types.PaymentWebhookRequest{Signature: "sig", Payload: []byte(`{}`)})
	if err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	return result
}

func TestHandlePaymentWebhookSuccess(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)

	result := payOrder(t, env, order, "SUCCESS")
	if !result.Processed || !result.Succeeded || result.OrderID != order.ID {
		t.Fatalf("unexpected result: %+v", result)
	}

	stored := env.store.data.orders[order.ID]
	if stored.Status != entity.OrderStatusPaid || stored.PaymentStatus != entity.PaymentStatusPaid || stored.PaidAt == nil {
		t.Fatalf("unexpected order: %+v", stored)
	}
	if stored.StatusUpdatedBy == nil || *stored.StatusUpdatedBy != "system_webhook" {
		t.Fatalf("unexpected status_updated_by: %v", stored.StatusUpdatedBy)
	}

	payment := env.store.data.payments["tok_"+order.ID]
	if payment.Status != entity.PaymentIntentSucceeded || payment.ProviderPaymentID == nil || *payment.ProviderPaymentID != "pay-1" {
		t.Fatalf("unexpected payment: %+v", payment)
	}

	public := env.store.data.public[order.TrackingCode]
	if public.Status != entity.OrderStatusPaid || public.PublicStepLabel != PublicStepLabel(entity.OrderStatusPaid) {
		t.Fatalf("unexpected projection: %+v", public)
	}

	last := env.store.data.history[len(env.store.data.history)-1]
	if last.Source != "webhook" || last.FromStatus == nil || *last.FromStatus != entity.OrderStatusCreated {
		t.Fatalf("unexpected history: %+v", last)
	}
	if env.store.data.audit[len(env.store.data.audit)-1].Action != AuditPaymentReceived {
		t.Fatal("expected PAYMENT_RECEIVED audit")
	}

	job := env.store.data.jobs[result.PDFJobID]
	if job == nil || job.Status != entity.JobStatusQueued || !strings.HasPrefix(job.ID, "pdf_"+order.ID+"_") {
		t.Fatalf("expected queued pdf job, got %+v", job)
	}
	if job.RequestedBy != "system:webhook" {
		t.Fatalf("unexpected requester: %s", job.RequestedBy)
	}
}

func TestHandlePaymentWebhookDeduplicates(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)
	payOrder(t, env, order, "SUCCESS")

	historyCount := len(env.store.data.history)
	jobCount := len(env.store.data.jobs)

	result, err := env.svc.HandlePaymentWebhook(context.Background(), &types.PaymentWebhookRequest{Signature: "sig", Payload: []byte(`{}`)})
	if err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	if result.Processed {
		t.Fatal("expected redelivery to be a no-op")
	}
	if len(env.store.data.history) != historyCount || len(env.store.data.jobs) != jobCount {
		t.Fatal("expected no new writes on redelivery")
	}
}

func TestHandlePaymentWebhookFailure(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)

	result := payOrder(t, env, order, "FAILURE")
	if !result.Processed || result.Succeeded {
		t.Fatalf("unexpected result: %+v", result)
	}

	stored := env.store.data.orders[order.ID]
	if stored.PaymentStatus != entity.PaymentStatusFailed || stored.Status != entity.OrderStatusCreated {
		t.Fatalf("unexpected order: %s/%s", stored.Status, stored.PaymentStatus)
	}
	if env.store.data.payments["tok_"+order.ID].Status != entity.PaymentIntentFailed {
		t.Fatal("expected failed payment")
	}
	if len(env.store.data.jobs) != 0 {
		t.Fatal("did not expect a pdf job")
	}
}

func TestHandlePaymentWebhookUnknownToken(t *testing.T) {
	env := newTestEnv(t)
	env.provider.event = &provider.WebhookEvent{Token: "unknown", Succeeded: true}

	result, err := env.svc.HandlePaymentWebhook(context.Background(), &types.PaymentWebhookRequest{Signature: "sig", Payload: []byte(`{}`)})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Processed {
		t.Fatal("expected unknown token to be ignored")
	}
}

func TestHandlePaymentWebhookRejectsSignature(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.HandlePaymentWebhook(context.Background(), &types.PaymentWebhookRequest{Payload: []byte(`{}`)})
	if !errors.Is(err, ErrWebhookRejected) || !errors.Is(err, provider.ErrMissingSignature) {
		t.Fatalf("expected missing signature rejection, got %v", err)
	}

	env.provider.verifyErr = provider.ErrInvalidSignature
	_, err = env.svc.HandlePaymentWebhook(context.Background(), &types.PaymentWebhookRequest{Signature: "bad", Payload: []byte(`{}`)})
	if !errors.Is(err, ErrWebhookRejected) || !errors.Is(err, provider.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature rejection, got %v", err)
	}
}

func TestHandlePaymentWebhookRollsBackOnFailure(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)
	payment, err := env.svc.CreatePaymentIntent(context.Background(), &types.CreatePaymentIntentRequest{OrderId: order.ID})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}

	env.store.failJobCreate = errors.New("jobs table unavailable")
	env.provider.event = &provider.WebhookEvent{Token: payment.Token, ProviderStatus: "SUCCESS", Succeeded: true}

	if _, err := env.svc.HandlePaymentWebhook(context.Background(), &types.PaymentWebhookRequest{Signature: "sig", Payload: []byte(`{}`)}); err == nil {
		t.Fatal("expected webhook error")
	}
	if env.store.data.orders[order.ID].Status != entity.OrderStatusCreated {
		t.Fatal("expected order status rolled back")
	}
	if env.store.data.payments[payment.Token].Status != entity.PaymentIntentPending {
		t.Fatal("expected payment status rolled back")
	}
}

func TestWebhookWithSandboxProvider(t *testing.T) {
	env := newTestEnv(t)
	env.svc.providerReg = provider.NewRegistry(provider.NewIyzicoProvider(provider.IyzicoConfig{
		Env:       "sandbox",
		APIKey:    "mock_api_key",
		SecretKey: "mock_secret_key",
	}))
	order := env.createOrder(t)

	payment, err := env.svc.CreatePaymentIntent(context.Background(), &types.CreatePaymentIntentRequest{OrderId: order.ID})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}
	if payment.Token != "sandbox_token_"+order.ID {
		t.Fatalf("unexpected sandbox token: %s", payment.Token)
	}

	payload := []byte(`{"token":"` + payment.Token + `","status":"success","paymentId":"p-9","conversationId":"` + order.ID + `"}`)
	result, err := env.svc.HandlePaymentWebhook(context.Background(), &types.PaymentWebhookRequest{Signature: "mock_valid_signature", Payload: payload})
	if err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	if !result.Processed || !result.Succeeded {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestGetPaymentStatus(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)

	got, err := env.svc.GetPaymentStatus(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if got.PaymentStatus != entity.PaymentStatusPending {
		t.Fatalf("unexpected payment status: %s", got.PaymentStatus)
	}
	if _, err := env.svc.GetPaymentStatus(context.Background(), "missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestStateMachine(t *testing.T) {
	allowed := [][2]string{
		{"CREATED", "PAID"}, {"CREATED", "CANCELLED"},
		{"PAID", "READY_FOR_PRINT"}, {"PAID", "CANCELLED"},
		{"READY_FOR_PRINT", "PRINTED"}, {"READY_FOR_PRINT", "CANCELLED"},
		{"PRINTED", "READY_FOR_PTT"}, {"READY_FOR_PTT", "SHIPPED"},
	}
	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}

	denied := [][2]string{
		{"CREATED", "SHIPPED"}, {"PRINTED", "CANCELLED"}, {"SHIPPED", "CREATED"},
		{"CANCELLED", "PAID"}, {"UNKNOWN", "PAID"}, {"PAID", "PAID"},
	}
	for _, pair := range denied {
		if CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be denied", pair[0], pair[1])
		}
	}

	if !IsTerminalStatus("SHIPPED") || !IsTerminalStatus("CANCELLED") || IsTerminalStatus("PAID") {
		t.Fatal("unexpected terminal statuses")
	}
	if PublicStepLabel("SHIPPED") != "Kargoya Verildi" || PublicStepLabel("NOPE") != "Bilinmeyen Durum" {
		t.Fatal("unexpected public step labels")
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(entity.OrderStatusPaid, testNow)

	change, err := env.svc.UpdateOrderStatus(context.Background(), &types.UpdateOrderStatusRequest{
		OrderId:            order.ID,
		ToStatus:           entity.OrderStatusReadyForPrint,
		ExpectedFromStatus: entity.OrderStatusPaid,
		Note:               "printer queue",
		Label:              "PTT-123",
		Actor:              "admin-1",
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if change.PreviousStatus != entity.OrderStatusPaid || change.NewStatus != entity.OrderStatusReadyForPrint {
		t.Fatalf("unexpected change: %+v", change)
	}

	stored := env.store.data.orders[order.ID]
	if stored.Status != entity.OrderStatusReadyForPrint || stored.StatusUpdatedBy == nil || *stored.StatusUpdatedBy != "admin-1" {
		t.Fatalf("unexpected order: %+v", stored)
	}
	public := env.store.data.public[order.TrackingCode]
	if public.Status != entity.OrderStatusReadyForPrint || public.Label == nil || *public.Label != "PTT-123" {
		t.Fatalf("unexpected projection: %+v", public)
	}
	if public.PublicStepLabel != "Baskı Sırasında" {
		t.Fatalf("unexpected step label: %s", public.PublicStepLabel)
	}

	history := env.store.data.history[len(env.store.data.history)-1]
	if history.Actor != "admin_admin-1" || history.Source != "admin_panel" || history.Note == nil || *history.Note != "printer queue" {
		t.Fatalf("unexpected history: %+v", history)
	}
	audit := env.store.data.audit[len(env.store.data.audit)-1]
	if audit.Action != AuditOrderStatusChange || audit.Metadata["from"] != "PAID" || audit.Metadata["to"] != "READY_FOR_PRINT" {
		t.Fatalf("unexpected audit: %+v", audit)
	}
	if len(env.publisher.published) != 1 {
		t.Fatal("expected projection mirror")
	}
}

func TestUpdateOrderStatusMismatch(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(entity.OrderStatusPrinted, testNow)

	_, err := env.svc.UpdateOrderStatus(context.Background(), &types.UpdateOrderStatusRequest{
		OrderId:            order.ID,
		ToStatus:           entity.OrderStatusReadyForPTT,
		ExpectedFromStatus: entity.OrderStatusPaid,
		Actor:              "admin-1",
	})
	if !errors.Is(err, ErrStatusMismatch) {
		t.Fatalf("expected ErrStatusMismatch, got %v", err)
	}
	var mismatch *StatusMismatchError
	if !errors.As(err, &mismatch) || mismatch.Current != entity.OrderStatusPrinted {
		t.Fatalf("expected mismatch detail, got %v", err)
	}
	if err.Error() != "Expected status PAID but order is currently in PRINTED" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestUpdateOrderStatusInvalidTransition(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(entity.OrderStatusPrinted, testNow)

	_, err := env.svc.UpdateOrderStatus(context.Background(), &types.UpdateOrderStatusRequest{
		OrderId:            order.ID,
		ToStatus:           entity.OrderStatusCancelled,
		ExpectedFromStatus: entity.OrderStatusPrinted,
		Actor:              "admin-1",
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err.Error() != "Invalid transition from PRINTED to CANCELLED" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if env.store.data.orders[order.ID].Status != entity.OrderStatusPrinted {
		t.Fatal("expected order untouched")
	}
}

func TestUpdateOrderStatusNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.UpdateOrderStatus(context.Background(), &types.UpdateOrderStatusRequest{
		OrderId:            "missing",
		ToStatus:           entity.OrderStatusPaid,
		ExpectedFromStatus: entity.OrderStatusCreated,
		Actor:              "admin-1",
	})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestListOrdersPaginates(t *testing.T) {
	env := newTestEnv(t)
	oldest := env.seedOrder(entity.OrderStatusCreated, testNow.Add(-3*time.Hour))
	middle := env.seedOrder(entity.OrderStatusPaid, testNow.Add(-2*time.Hour))
	newest := env.seedOrder(entity.OrderStatusCreated, testNow.Add(-1*time.Hour))

	page, err := env.svc.ListOrders(context.Background(), &types.ListOrdersRequest{Limit: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].ID != newest.ID || page.Items[1].ID != middle.ID {
		t.Fatalf("unexpected first page: %+v", page.Items)
	}
	if !page.HasMore || page.NextCursor == nil || *page.NextCursor != middle.ID {
		t.Fatalf("unexpected paging: has_more=%v cursor=%v", page.HasMore, page.NextCursor)
	}

	next, err := env.svc.ListOrders(context.Background(), &types.ListOrdersRequest{Limit: 2, Cursor: *page.NextCursor})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(next.Items) != 1 || next.Items[0].ID != oldest.ID || next.HasMore || next.NextCursor != nil {
		t.Fatalf("unexpected second page: %+v", next)
	}

	filtered, err := env.svc.ListOrders(context.Background(), &types.ListOrdersRequest{Status: "paid"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(filtered.Items) != 1 || filtered.Items[0].ID != middle.ID {
		t.Fatalf("unexpected filtered page: %+v", filtered.Items)
	}

	if _, err := env.svc.ListOrders(context.Background(), &types.ListOrdersRequest{Status: "LOST"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestGeneratePDF(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(entity.OrderStatusPaid, testNow)
	req := &types.PdfGenerateRequest{JobId: "job-1", OrderId: order.ID}

	outcome, err := env.svc.GeneratePDF(context.Background(), req)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if outcome.Message != MessagePDFGenerated || outcome.NoOp {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	stored := env.store.data.orders[order.ID]
	if stored.PDFStatus == nil || *stored.PDFStatus != entity.PDFStatusReady {
		t.Fatalf("unexpected pdf status: %v", stored.PDFStatus)
	}
	if stored.PDFPath == nil || !strings.HasSuffix(*stored.PDFPath, order.ID+"/generated/letter.pdf") {
		t.Fatalf("unexpected pdf path: %v", stored.PDFPath)
	}
	if string(env.objects.puts[order.ID+"/generated/letter.pdf"]) != "%PDF-"+order.TrackingCode {
		t.Fatal("expected rendered pdf in object storage")
	}
	if job := env.store.data.jobs["job-1"]; job == nil || job.Status != entity.JobStatusSucceeded || job.RequestedBy != "system:webhook" {
		t.Fatalf("unexpected job: %+v", job)
	}

	again, err := env.svc.GeneratePDF(context.Background(), req)
	if err != nil {
		t.Fatalf("repeat failed: %v", err)
	}
	if !again.NoOp || again.Message != MessageJobAlreadySucceeded {
		t.Fatalf("unexpected repeat outcome: %+v", again)
	}

	other, err := env.svc.GeneratePDF(context.Background(), &types.PdfGenerateRequest{JobId: "job-2", OrderId: order.ID})
	if err != nil {
		t.Fatalf("second job failed: %v", err)
	}
	if !other.NoOp || other.Message != MessagePDFAlreadyReady {
		t.Fatalf("unexpected ready outcome: %+v", other)
	}
}

func TestGeneratePDFLockedAndMissing(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(entity.OrderStatusPaid, testNow)
	generating := entity.PDFStatusGenerating
	order.PDFStatus = &generating

	if _, err := env.svc.GeneratePDF(context.Background(), &types.PdfGenerateRequest{JobId: "job-1", OrderId: order.ID}); !errors.Is(err, ErrPDFLocked) {
		t.Fatalf("expected ErrPDFLocked, got %v", err)
	}
	if _, err := env.svc.GeneratePDF(context.Background(), &types.PdfGenerateRequest{JobId: "job-2", OrderId: "missing"}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestGeneratePDFControlledFailure(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(entity.OrderStatusPaid, testNow)

	_, err := env.svc.GeneratePDF(context.Background(), &types.PdfGenerateRequest{JobId: "FAIL_TEST_1", OrderId: order.ID})
	if !errors.Is(err, ErrPDFGenerationFailed) {
		t.Fatalf("expected ErrPDFGenerationFailed, got %v", err)
	}

	stored := env.store.data.orders[order.ID]
	if stored.PDFStatus == nil || *stored.PDFStatus != entity.PDFStatusFailed || stored.PDFError == nil {
		t.Fatalf("expected failed pdf status, got %+v", stored)
	}
	job := env.store.data.jobs["FAIL_TEST_1"]
	if job == nil || job.Status != entity.JobStatusFailed || job.LastError == nil {
		t.Fatalf("expected failed job, got %+v", job)
	}

	// A retry of a failed job starts over.
	env.svc.appEnv = "production"
	if _, err := env.svc.GeneratePDF(context.Background(), &types.PdfGenerateRequest{JobId: "FAIL_TEST_1", OrderId: order.ID, Attempt: 2}); err != nil {
		t.Fatalf("expected production run to ignore the failure prefix, got %v", err)
	}
	if env.store.data.jobs["FAIL_TEST_1"].Attempt != 2 {
		t.Fatalf("expected attempt 2, got %d", env.store.data.jobs["FAIL_TEST_1"].Attempt)
	}
}

func TestGeneratePDFStorageFailure(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(entity.OrderStatusPaid, testNow)
	env.objects.err = errors.New("bucket unavailable")

	if _, err := env.svc.GeneratePDF(context.Background(), &types.PdfGenerateRequest{JobId: "job-1", OrderId: order.ID}); !errors.Is(err, ErrPDFGenerationFailed) {
		t.Fatalf("expected ErrPDFGenerationFailed, got %v", err)
	}
	if *env.store.data.orders[order.ID].PDFStatus != entity.PDFStatusFailed {
		t.Fatal("expected FAILED pdf status")
	}
}

func TestRunPDFDispatchBatch(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)
	result := payOrder(t, env, order, "SUCCESS")

	if err := env.svc.RunPDFDispatchBatch(context.Background()); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if env.store.data.jobs[result.PDFJobID].Status != entity.JobStatusSucceeded {
		t.Fatalf("expected job succeeded, got %s", env.store.data.jobs[result.PDFJobID].Status)
	}
	if *env.store.data.orders[order.ID].PDFStatus != entity.PDFStatusReady {
		t.Fatal("expected pdf ready")
	}
}

func TestCleanupPII(t *testing.T) {
	env := newTestEnv(t)
	old := testNow.AddDate(0, 0, -40)
	shipped := env.seedOrder(entity.OrderStatusShipped, old)
	cancelled := env.seedOrder(entity.OrderStatusCancelled, old)
	another := env.seedOrder(entity.OrderStatusShipped, old.Add(time.Hour))
	recent := env.seedOrder(entity.OrderStatusShipped, testNow.AddDate(0, 0, -5))
	active := env.seedOrder(entity.OrderStatusPrinted, old)

	dryRun, err := env.svc.CleanupPII(context.Background(), &types.PiiCleanupRequest{JobId: "pii-dry"})
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if dryRun.Count != 3 || dryRun.Message != "Dry run success. Est records: 3" {
		t.Fatalf("unexpected dry run: %+v", dryRun)
	}
	if env.store.data.orders[shipped.ID].LetterText == "" {
		t.Fatal("dry run must not change data")
	}

	dry := false
	outcome, err := env.svc.CleanupPII(context.Background(), &types.PiiCleanupRequest{JobId: "pii-1", DryRun: &dry})
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if outcome.Count != 3 || outcome.Message != "PII cleaned from 3 records." {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	for _, id := range []string{shipped.ID, cancelled.ID, another.ID} {
		stored := env.store.data.orders[id]
		if stored.HasPII() || stored.PIICleanedAt == nil {
			t.Fatalf("expected PII cleared for %s: %+v", id, stored)
		}
	}
	for _, id := range []string{recent.ID, active.ID} {
		if !env.store.data.orders[id].HasPII() {
			t.Fatalf("expected PII kept for %s", id)
		}
	}

	audit := env.store.data.audit[len(env.store.data.audit)-1]
	if audit.Action != AuditPIICleanup || audit.Actor != "system:scheduler" || audit.Metadata["cleaned_count"] != 3 {
		t.Fatalf("unexpected audit: %+v", audit)
	}
	if job := env.store.data.jobs["pii-1"]; job == nil || job.JobType != entity.JobTypePIICleanup {
		t.Fatalf("expected recorded job, got %+v", job)
	}

	repeat, err := env.svc.CleanupPII(context.Background(), &types.PiiCleanupRequest{JobId: "pii-2", DryRun: &dry})
	if err != nil {
		t.Fatalf("repeat cleanup failed: %v", err)
	}
	if repeat.Count != 0 {
		t.Fatalf("expected nothing left to clean, got %d", repeat.Count)
	}
}

func TestRunPIICleanupBatch(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(entity.OrderStatusCancelled, testNow.AddDate(0, 0, -31))

	if err := env.svc.RunPIICleanupBatch(context.Background()); err != nil {
		t.Fatalf("cleanup batch failed: %v", err)
	}
	if env.store.data.orders[order.ID].HasPII() {
		t.Fatal("expected PII cleared")
	}
}

func TestReadDocument(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)

	doc, err := env.svc.ReadDocument(context.Background(), &types.DocumentRequest{Collection: "order_public", DocumentId: order.TrackingCode}, nil)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if doc.Public == nil || doc.Public.TrackingCode != order.TrackingCode {
		t.Fatalf("unexpected document: %+v", doc)
	}

	if _, err := env.svc.ReadDocument(context.Background(), &types.DocumentRequest{Collection: "orders", DocumentId: order.ID}, &policy.Principal{UID: "u1"}); !errors.Is(err, policy.ErrDenied) {
		t.Fatalf("expected ErrDenied for orders, got %v", err)
	}
	if _, err := env.svc.ReadDocument(context.Background(), &types.DocumentRequest{Collection: "order_public", DocumentId: "MISSING"}, nil); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestUserDocuments(t *testing.T) {
	env := newTestEnv(t)
	owner := &policy.Principal{UID: "user_123"}
	ref := &types.DocumentRequest{Collection: "users", DocumentId: "user_123"}

	if _, err := env.svc.WriteDocument(context.Background(), ref, &types.UserProfilePayload{DisplayName: "Ahmet", Email: "a@example.com"}, owner); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	doc, err := env.svc.ReadDocument(context.Background(), ref, owner)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if doc.User == nil || doc.User.DisplayName != "Ahmet" || doc.User.Email == nil {
		t.Fatalf("unexpected profile: %+v", doc.User)
	}

	other := &policy.Principal{UID: "user_456"}
	if _, err := env.svc.ReadDocument(context.Background(), ref, other); !errors.Is(err, policy.ErrDenied) {
		t.Fatalf("expected ErrDenied, got %v", err)
	}
	if _, err := env.svc.WriteDocument(context.Background(), ref, &types.UserProfilePayload{DisplayName: "Hacked"}, other); !errors.Is(err, policy.ErrDenied) {
		t.Fatalf("expected ErrDenied, got %v", err)
	}
	if env.store.data.users["user_123"].DisplayName != "Ahmet" {
		t.Fatal("expected profile unchanged after denied write")
	}

	if _, err := env.svc.WriteDocument(context.Background(), &types.DocumentRequest{Collection: "order_public", DocumentId: "X"}, &types.UserProfilePayload{DisplayName: "x"}, owner); !errors.Is(err, policy.ErrDenied) {
		t.Fatalf("expected ErrDenied for order_public write, got %v", err)
	}
}
