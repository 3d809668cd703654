package services

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	payos "github.com/payOSHQ/payos-lib-golang"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	dbm "sajangnote/internal/models/db_models"
	"sajangnote/internal/models/response_models"
	"sajangnote/internal/repositories"
	"sajangnote/pkg/utils"
)

type PayOSConfig struct {
	ClientID     string
	ApiKey       string
	ChecksumKey  string // secret used to verify webhooks
	ReturnURL    string
	CancelURL    string
	ProviderName string // stored on Transaction.Provider
}

type PaymentService interface {
	CreateCheckoutForPlan(ctx context.Context, accountID uuid.UUID, planCode string) (*response_models.CreateCheckoutResponse, error)
	HandleWebhook(c *gin.Context)
}

type paymentService struct {
	db          *gorm.DB
	accountRepo repositories.AccountRepository
	placeRepo   repositories.PlaceRepository
	planRepo    repositories.PlanRepository
	cfg         PayOSConfig
	loc         *time.Location
}

func NewPaymentService(
	db *gorm.DB,
	accountRepo repositories.AccountRepository,
	placeRepo repositories.PlaceRepository,
	planRepo repositories.PlanRepository,
	cfg PayOSConfig,
) (PaymentService, error) {
	if cfg.ClientID == "" || cfg.ApiKey == "" || cfg.ChecksumKey == "" {
		return nil, fmt.Errorf("payos config incomplete")
	}
	if cfg.ProviderName == "" {
		cfg.ProviderName = "payos"
	}
	if err := payos.Key(cfg.ClientID, cfg.ApiKey, cfg.ChecksumKey); err != nil {
		return nil, fmt.Errorf("payos client init: %w", err)
	}
	return &paymentService{
		db:          db,
		accountRepo: accountRepo,
		placeRepo:   placeRepo,
		planRepo:    planRepo,
		cfg:         cfg,
		loc:         utils.KSTLocation(),
	}, nil
}

func (p *paymentService) CreateCheckoutForPlan(ctx context.Context, accountID uuid.UUID, planCode string) (*response_models.CreateCheckoutResponse, error) {
	plan, err := p.planRepo.GetByCode(ctx, planCode)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, utils.ErrPlanNotFound
	}

	amount := plan.PriceMinor
	if amount <= 0 {
		return nil, fmt.Errorf("plan %s is not billable (amount=%d)", planCode, amount)
	}

	// The order code is folded out of the transaction's own uuid, so two
	// checkouts opened in the same second cannot share one. The unique index
	// on provider_txn_id backstops the residual collision odds.
	txnID := uuid.New()
	orderCode := orderCodeFromID(txnID)

	txn := &dbm.Transaction{
		BaseModel:     dbm.BaseModel{ID: txnID},
		AccountID:     accountID,
		AmountMinor:   amount,
		Currency:      strings.ToUpper(plan.Currency),
		Status:        dbm.TxnStatusPending,
		Provider:      p.cfg.ProviderName,
		ProviderTxnID: fmt.Sprintf("payos:%d", orderCode),
	}
	if err := p.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	body := payos.CheckoutRequestType{
		OrderCode:   orderCode,
		Amount:      int(amount),
		Items:       []payos.Item{{Name: fmt.Sprintf("%s (%s)", plan.Name, plan.Code), Price: int(amount), Quantity: 1}},
		Description: fmt.Sprintf("Subscription %s", plan.Code),
		CancelUrl:   p.cfg.CancelURL,
		ReturnUrl:   p.cfg.ReturnURL,
	}

	resp, err := payos.CreatePaymentLink(body)
	if err != nil {
		_ = p.db.WithContext(ctx).Model(txn).
			Updates(map[string]interface{}{"status": dbm.TxnStatusFailed})
		return nil, fmt.Errorf("payos create link: %w", err)
	}

	meta := map[string]interface{}{
		"plan_id":   plan.ID,
		"plan_code": plan.Code,
	}
	if bytes, _ := json.Marshal(meta); bytes != nil {
		_ = p.db.WithContext(ctx).Model(txn).Update("metadata", bytes).Error
	}

	return &response_models.CreateCheckoutResponse{
		OrderCode:    orderCode,
		Amount:       amount,
		PaymentURL:   resp.CheckoutUrl,
		ProviderName: p.cfg.ProviderName,
	}, nil
}

func (p *paymentService) HandleWebhook(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	var body payos.WebhookType
	if err := json.Unmarshal(rawBody, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload"})
		return
	}

	data, payosErr := payos.VerifyPaymentWebhookData(body)
	if payosErr != nil {
		log.Error().Err(payosErr).Msg("webhook verification failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Failed to verify webhook data"})
		return
	}

	// payOS sends order code 123 when confirming the webhook URL itself.
	if data.OrderCode == 123 {
		c.JSON(http.StatusOK, gin.H{"message": "webhook confirmed"})
		return
	}

	orderCode := data.OrderCode
	providerTxn := fmt.Sprintf("payos:%d", orderCode)

	var txn dbm.Transaction
	if err := p.db.Where("provider_txn_id = ?", providerTxn).First(&txn).Error; err != nil {
		// Ack 200 to avoid a retry storm; log for investigation.
		log.Warn().Int64("order_code", orderCode).Msg("webhook: transaction not found")
		c.JSON(http.StatusOK, gin.H{"message": "ignored"})
		return
	}

	// Idempotent: replayed webhooks for an already-paid transaction are acks.
	if txn.Status == dbm.TxnStatusPaid {
		c.JSON(http.StatusOK, gin.H{"message": "already processed"})
		return
	}

	now := time.Now().Unix()
	err = p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&txn).Updates(map[string]interface{}{
			"status":  dbm.TxnStatusPaid,
			"paid_at": now,
		}).Error; err != nil {
			return err
		}
		return p.activateSubscription(tx, &txn)
	})
	if err != nil {
		log.Error().Err(err).Int64("order_code", orderCode).Msg("webhook: failed to process transaction")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// activateSubscription creates the subscription window and applies the
// plan's entitlement grant to the account and its places, all inside the
// webhook transaction.
func (p *paymentService) activateSubscription(tx *gorm.DB, txn *dbm.Transaction) error {
	var m struct {
		PlanID   uuid.UUID `json:"plan_id"`
		PlanCode string    `json:"plan_code"`
	}
	if err := json.Unmarshal(txn.Metadata, &m); err != nil || m.PlanCode == "" {
		return fmt.Errorf("missing plan info in transaction metadata")
	}

	var plan dbm.Plan
	if err := tx.Where("id = ? AND is_active = TRUE", m.PlanID).First(&plan).Error; err != nil {
		return fmt.Errorf("plan not found while activating: %w", err)
	}

	now := time.Now().In(p.loc)
	starts := now

	// A still-running auto-renewing subscription extends rather than overlaps.
	var current dbm.Subscription
	err := tx.
		Where("account_id = ? AND status IN ? AND ends_at >= ?",
			txn.AccountID,
			[]dbm.SubscriptionStatus{dbm.SubStatusActive, dbm.SubStatusTrialing, dbm.SubStatusPastDue},
			now.Add(-24*time.Hour).Unix()).
		Order("ends_at DESC").
		First(&current).Error
	if err == nil && current.Status == dbm.SubStatusActive && current.AutoRenew && current.EndsAt > now.Unix() {
		starts = time.Unix(current.EndsAt, 0).In(p.loc)
	}

	var ends time.Time
	switch plan.Period {
	case dbm.PeriodYear:
		ends = starts.AddDate(1, 0, 0)
	default:
		ends = starts.AddDate(0, 1, 0)
	}

	sub := dbm.Subscription{
		AccountID:     txn.AccountID,
		PlanID:        plan.ID,
		Status:        dbm.SubStatusActive,
		StartsAt:      starts.Unix(),
		EndsAt:        ends.Unix(),
		AutoRenew:     true,
		Provider:      p.cfg.ProviderName,
		ProviderSubID: strconv.FormatInt(time.Now().UnixNano(), 10),
		Metadata: jsonRaw(map[string]interface{}{
			"activated_by_txn": txn.ID,
			"amount_minor":     txn.AmountMinor,
			"currency":         txn.Currency,
		}),
	}
	if err := tx.Create(&sub).Error; err != nil {
		return err
	}

	grant, err := plan.ParseFeatures()
	if err != nil {
		return fmt.Errorf("plan %s has malformed features: %w", plan.Code, err)
	}
	if err := p.accountRepo.ApplyPlanGrant(tx, txn.AccountID, grant); err != nil {
		return err
	}

	// Top up the daily refresh allowance on existing places immediately.
	return p.placeRepo.SetRemainingRefreshes(tx, txn.AccountID, grant.DailyRefreshes)
}

// orderCodeFromID folds a transaction id into a positive order code inside
// the gateway's safe-integer range (payOS rejects codes above 2^53).
func orderCodeFromID(id uuid.UUID) int64 {
	code := int64(binary.BigEndian.Uint64(id[:8]) & (1<<52 - 1))
	if code == 0 {
		code = 1
	}
	return code
}

func jsonRaw(v interface{}) []byte {
	b, _ := json.Marshal(v)
	return b
}
