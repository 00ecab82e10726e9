package wealthsimple

import (
	"encoding/json"
	"fmt"
	"time"
)

// AccountType is the closed set of account kinds the client understands.
type AccountType string

const (
	AccountTypeTFSA                AccountType = "ca_tfsa"
	AccountTypeRRSP                AccountType = "ca_rrsp"
	AccountTypeRESP                AccountType = "ca_resp"
	AccountTypeLIRA                AccountType = "ca_lira"
	AccountTypeRRIF                AccountType = "ca_rrif"
	AccountTypeNonRegistered       AccountType = "ca_non_registered"
	AccountTypeNonRegisteredCrypto AccountType = "ca_non_registered_crypto"
	AccountTypeCash                AccountType = "ca_cash"
	AccountTypeCreditCard          AccountType = "credit_card"
)

var accountTypes = map[AccountType]bool{
	AccountTypeTFSA:                true,
	AccountTypeRRSP:                true,
	AccountTypeRESP:                true,
	AccountTypeLIRA:                true,
	AccountTypeRRIF:                true,
	AccountTypeNonRegistered:       true,
	AccountTypeNonRegisteredCrypto: true,
	AccountTypeCash:                true,
	AccountTypeCreditCard:          true,
}

// Valid reports whether t is one of the enumerated account types.
func (t AccountType) Valid() bool {
	return accountTypes[t]
}

// UsesActivityFeed reports whether transactions for this account type come
// from the GraphQL activity feed instead of the REST transactions resource.
// Card and spend accounts have no REST transaction history.
func (t AccountType) UsesActivityFeed() bool {
	return t == AccountTypeCash || t == AccountTypeCreditCard
}

// Account is a reference to a brokerage account. It is supplied by the
// caller; the client never constructs or mutates one.
type Account struct {
	ID            string      `json:"id"`
	Type          AccountType `json:"account_type"`
	Currency      string      `json:"currency"`
	DisplayNumber string      `json:"display_number"`
}

// Money is a monetary amount. Amount is decimal-preserving text and is never
// parsed into floating point.
type Money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// TransactionType is the closed vocabulary of transaction kinds.
type TransactionType string

const (
	TypeBuy               TransactionType = "buy"
	TypeSell              TransactionType = "sell"
	TypeDividend          TransactionType = "dividend"
	TypeDistribution      TransactionType = "distribution"
	TypeInterest          TransactionType = "interest"
	TypeFee               TransactionType = "fee"
	TypeManagementFee     TransactionType = "management_fee"
	TypeFXConversion      TransactionType = "fx_conversion"
	TypeDeposit           TransactionType = "deposit"
	TypeWithdrawal        TransactionType = "withdrawal"
	TypeTransferIn        TransactionType = "transfer_in"
	TypeTransferOut       TransactionType = "transfer_out"
	TypeReferralBonus     TransactionType = "referral_bonus"
	TypeReimbursement     TransactionType = "reimbursement"
	TypeJournalIn         TransactionType = "journal_in"
	TypeJournalOut        TransactionType = "journal_out"
	TypeStockSplit        TransactionType = "stock_split"
	TypeStockDividend     TransactionType = "stock_dividend"
	TypeSpinOff           TransactionType = "spin_off"
	TypeMerger            TransactionType = "merger"
	TypeTax               TransactionType = "tax"
	TypeWithholdingTax    TransactionType = "withholding_tax"
	TypeRebate            TransactionType = "rebate"
	TypeCashback          TransactionType = "cashback"
	TypeCardPurchase      TransactionType = "card_purchase"
	TypeCardPayment       TransactionType = "card_payment"
	TypeCardRefund        TransactionType = "card_refund"
	TypeATMWithdrawal     TransactionType = "atm_withdrawal"
	TypeP2PSend           TransactionType = "p2p_send"
	TypeP2PReceive        TransactionType = "p2p_receive"
	TypeBillPayment       TransactionType = "bill_payment"
	TypeDirectDeposit     TransactionType = "direct_deposit"
	TypeCryptoBuy         TransactionType = "crypto_buy"
	TypeCryptoSell        TransactionType = "crypto_sell"
	TypeCryptoTransferIn  TransactionType = "crypto_transfer_in"
	TypeCryptoTransferOut TransactionType = "crypto_transfer_out"
)

var transactionTypes = map[TransactionType]bool{
	TypeBuy: true, TypeSell: true, TypeDividend: true, TypeDistribution: true,
	TypeInterest: true, TypeFee: true, TypeManagementFee: true, TypeFXConversion: true,
	TypeDeposit: true, TypeWithdrawal: true, TypeTransferIn: true, TypeTransferOut: true,
	TypeReferralBonus: true, TypeReimbursement: true, TypeJournalIn: true, TypeJournalOut: true,
	TypeStockSplit: true, TypeStockDividend: true, TypeSpinOff: true, TypeMerger: true,
	TypeTax: true, TypeWithholdingTax: true, TypeRebate: true, TypeCashback: true,
	TypeCardPurchase: true, TypeCardPayment: true, TypeCardRefund: true, TypeATMWithdrawal: true,
	TypeP2PSend: true, TypeP2PReceive: true, TypeBillPayment: true, TypeDirectDeposit: true,
	TypeCryptoBuy: true, TypeCryptoSell: true, TypeCryptoTransferIn: true, TypeCryptoTransferOut: true,
}

// ParseTransactionType validates a REST transaction type tag.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	if !transactionTypes[t] {
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
	return t, nil
}

// activityTypeMap translates activity-feed (type, subType) pairs into the
// shared vocabulary. Keys are "TYPE/SUBTYPE" with a bare "TYPE" fallback.
var activityTypeMap = map[string]TransactionType{
	"DIY_BUY":                       TypeBuy,
	"DIY_SELL":                      TypeSell,
	"DIVIDEND":                      TypeDividend,
	"DISTRIBUTION":                  TypeDistribution,
	"INTEREST":                      TypeInterest,
	"FEE":                           TypeFee,
	"MANAGEMENT_FEE":                TypeManagementFee,
	"FX_CONVERSION":                 TypeFXConversion,
	"DEPOSIT":                       TypeDeposit,
	"DEPOSIT/AFT":                   TypeDirectDeposit,
	"WITHDRAWAL":                    TypeWithdrawal,
	"INTERNAL_TRANSFER/SOURCE":      TypeTransferOut,
	"INTERNAL_TRANSFER/DESTINATION": TypeTransferIn,
	"REFERRAL_BONUS":                TypeReferralBonus,
	"REIMBURSEMENT":                 TypeReimbursement,
	"CASHBACK":                      TypeCashback,
	"SPEND":                         TypeCardPurchase,
	"SPEND/PREPAID":                 TypeCardPurchase,
	"SPEND/REFUND":                  TypeCardRefund,
	"SPEND/ATM":                     TypeATMWithdrawal,
	"CREDIT_CARD/PAYMENT":           TypeCardPayment,
	"P2P_PAYMENT/SEND":              TypeP2PSend,
	"P2P_PAYMENT/RECEIVE":           TypeP2PReceive,
	"BILL_PAY":                      TypeBillPayment,
	"CRYPTO_BUY":                    TypeCryptoBuy,
	"CRYPTO_SELL":                   TypeCryptoSell,
	"CRYPTO_TRANSFER/SOURCE":        TypeCryptoTransferOut,
	"CRYPTO_TRANSFER/DESTINATION":   TypeCryptoTransferIn,
}

func mapActivityType(feedType, subType string) (TransactionType, error) {
	if subType != "" {
		if t, ok := activityTypeMap[feedType+"/"+subType]; ok {
			return t, nil
		}
	}
	if t, ok := activityTypeMap[feedType]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown activity type %q (subType %q)", feedType, subType)
}

// Transaction is one normalized transaction record. It is constructed once
// from either a REST record or a merged activity-feed node, and never
// mutated afterward.
type Transaction struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"account_id"`
	Type          TransactionType `json:"type"`
	Description   string          `json:"description"`
	Symbol        string          `json:"symbol"`
	Quantity      string          `json:"quantity"`
	MarketPrice   Money           `json:"market_price"`
	MarketValue   Money           `json:"market_value"`
	NetCash       Money           `json:"net_cash"`
	FXRate        string          `json:"fx_rate"`
	EffectiveDate time.Time       `json:"effective_date"`
	ProcessDate   time.Time       `json:"process_date"`
}

// Position is one holding in an account.
type Position struct {
	AccountID    string `json:"account_id"`
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	SecurityType string `json:"security_type"`
	Quantity     string `json:"quantity"`
	Currency     string `json:"currency"`
	MarketPrice  Money  `json:"market_price"`
	MarketValue  Money  `json:"market_value"`
}

// tokenResponse is the token endpoint's response body.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	CreatedAt        int64  `json:"created_at"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// decimalText preserves a numeric JSON value as its exact textual form, so
// financial values never round-trip through floating point. It accepts both
// JSON numbers and JSON strings.
type decimalText string

func (d *decimalText) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = decimalText(s)
		return nil
	}
	*d = decimalText(b)
	return nil
}

// Each endpoint produces its own textual date format; parsing dispatches on
// the producer rather than attempting one universal parser.
const (
	restDateLayout   = "2006-01-02"                     // REST effective/process dates
	occurredAtLayout = "2006-01-02T15:04:05.000000Z07:00" // activity feed occurredAt
	settledAtLayout  = "2006-01-02 15:04:05 MST"        // activity feed settledAt
)

func parseRESTDate(s string) (time.Time, error) {
	return time.Parse(restDateLayout, s)
}

func parseOccurredAt(s string) (time.Time, error) {
	return time.Parse(occurredAtLayout, s)
}

func parseSettledAt(s string) (time.Time, error) {
	return time.Parse(settledAtLayout, s)
}
