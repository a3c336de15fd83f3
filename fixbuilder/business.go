package fixbuilder

import (
	"fmt"

	"fixengine/fixmsg"
)

// Business-message tag numbers, grounded on the CBOE Digital business
// message catalogue this engine's builders were modeled on.
const (
	tagClOrdID             = 11
	tagNoPartyIDs          = 453
	tagPartyID             = 448
	tagPartyRole           = 452
	tagAccountType         = 581
	tagCustOrderCapacity   = 582
	tagHandlInst           = 21
	tagExecInst            = 18
	tagCurrency            = 15
	tagSide                = 54
	tagSymbol              = 55
	tagProduct             = 460
	tagTransactTime        = 60
	tagOrderQty            = 38
	tagOrdType             = 40
	tagPrice               = 44
	tagStopPx              = 99
	tagExpireDate          = 432
	tagTimeInForce         = 59
	tagMinQty              = 110
	tagOrderID             = 37
	tagOrigClOrdID         = 41
	tagOverfillProtection  = 5000
	tagMassCancelAllOrders = 7559
	tagMassStatusReqID     = 584
	tagMassStatusReqType   = 585
	tagMDReqID             = 262
	tagSubscriptionReqType = 263
	tagMarketDepth         = 264
	tagMDUpdateType        = 265
	tagAggregatedBook      = 266
	tagNoMDEntryTypes      = 267
	tagMDEntryType         = 269
	tagNoRelatedSym        = 146
	tagTradeReportReqID    = 568
	tagTradeReportReqType  = 569
	tagTradeReportID       = 571
)

// Order types and time-in-force values referenced by NewOrderSingle's
// conditional-field invariants below.
const (
	OrdTypeStopLimit   = "4"
	TimeInForceGTD     = "6"
	TimeInForceIOC     = "3"
	HandlInstAutoPrivate = "1"
)

// PartyEntry is one entry of the NoPartyIDs repeating group.
type PartyEntry struct {
	PartyID   string
	PartyRole string
}

// NewOrderParams carries every field a NewOrderSingle may need. Optional
// fields use Go zero values to mean "absent"; required-by-variant fields
// are validated in Validate.
type NewOrderParams struct {
	ClOrdID      string
	Parties      []PartyEntry
	AccountType  string
	CustOrderCap string
	ExecInst     string
	Currency     string
	Side         string
	Symbol       string
	Product      int
	Quantity     string
	OrdType      string
	Price        string
	StopPx       string // required when OrdType == OrdTypeStopLimit
	ExpireDate   string // required when TimeInForce == TimeInForceGTD
	TimeInForce  string
	MinQty       string // used only when TimeInForce == TimeInForceIOC
}

// Validate enforces the conditional-field invariants the original
// business-message catalogue asserts at call time: StopPx for stop-limit
// orders, ExpireDate for good-till-date orders.
func (p NewOrderParams) Validate() error {
	if p.ClOrdID == "" || p.Symbol == "" || p.Side == "" || p.OrdType == "" {
		return fmt.Errorf("%w: ClOrdID, Symbol, Side, and OrdType are required", ErrInvalidArguments)
	}
	if p.OrdType == OrdTypeStopLimit && p.StopPx == "" {
		return fmt.Errorf("%w: StopPx required for stop-limit orders", ErrInvalidArguments)
	}
	if p.TimeInForce == TimeInForceGTD && p.ExpireDate == "" {
		return fmt.Errorf("%w: ExpireDate required for good-till-date orders", ErrInvalidArguments)
	}
	return nil
}

// NewOrderSingle builds a NewOrderSingle message. TransactTime is stamped
// with microsecond precision via fixmsg.FormatSendingTime; the precision
// is not configurable.
func (b *Builder) NewOrderSingle(p NewOrderParams) (*fixmsg.Message, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	msg := b.header(MsgTypeNewOrderSingle)
	msg.Add(tagClOrdID, p.ClOrdID)
	if len(p.Parties) > 0 {
		msg.AddInt(tagNoPartyIDs, len(p.Parties))
		for _, party := range p.Parties {
			msg.Add(tagPartyID, party.PartyID)
			msg.Add(tagPartyRole, party.PartyRole)
		}
	}
	if p.AccountType != "" {
		msg.Add(tagAccountType, p.AccountType)
	}
	if p.CustOrderCap != "" {
		msg.Add(tagCustOrderCapacity, p.CustOrderCap)
	}
	msg.Add(tagHandlInst, HandlInstAutoPrivate)
	if p.ExecInst != "" {
		msg.Add(tagExecInst, p.ExecInst)
	}
	if p.Currency != "" {
		msg.Add(tagCurrency, p.Currency)
	}
	msg.Add(tagSide, p.Side)
	msg.Add(tagSymbol, p.Symbol)
	if p.Product != 0 {
		msg.AddInt(tagProduct, p.Product)
	}
	msg.Add(tagTransactTime, fixmsg.FormatSendingTime(b.clock.Now()))
	msg.Add(tagOrderQty, p.Quantity)
	msg.Add(tagOrdType, p.OrdType)
	if p.Price != "" {
		msg.Add(tagPrice, p.Price)
	}
	if p.OrdType == OrdTypeStopLimit {
		msg.Add(tagStopPx, p.StopPx)
	}
	if p.TimeInForce == TimeInForceGTD {
		msg.Add(tagExpireDate, p.ExpireDate)
	}
	msg.Add(tagTimeInForce, p.TimeInForce)
	if p.TimeInForce == TimeInForceIOC && p.MinQty != "" {
		msg.Add(tagMinQty, p.MinQty)
	}
	return msg, nil
}

// OrderCancelReplaceParams carries the fields for an
// OrderCancelReplaceRequest.
type OrderCancelReplaceParams struct {
	OrderID            string
	OrigClOrdID        string
	ClOrdID            string
	Side               string
	Symbol             string
	Quantity           string
	OrdType            string
	Price              string
	StopPx             string
	TimeInForce        string
	OverfillProtection bool
}

// OrderCancelReplaceRequest builds a cancel-replace (amend) request.
func (b *Builder) OrderCancelReplaceRequest(p OrderCancelReplaceParams) (*fixmsg.Message, error) {
	if p.OrderID == "" || p.OrigClOrdID == "" || p.ClOrdID == "" {
		return nil, fmt.Errorf("%w: OrderID, OrigClOrdID, and ClOrdID are required", ErrInvalidArguments)
	}
	if p.OrdType == OrdTypeStopLimit && p.StopPx == "" {
		return nil, fmt.Errorf("%w: StopPx required for stop-limit replace", ErrInvalidArguments)
	}

	msg := b.header(MsgTypeOrderCancelReplaceRequest)
	msg.Add(tagOrderID, p.OrderID)
	msg.Add(tagOrigClOrdID, p.OrigClOrdID)
	msg.Add(tagClOrdID, p.ClOrdID)
	if p.Side != "" {
		msg.Add(tagSide, p.Side)
	}
	if p.Symbol != "" {
		msg.Add(tagSymbol, p.Symbol)
	}
	if p.Quantity != "" {
		msg.Add(tagOrderQty, p.Quantity)
	}
	if p.OrdType != "" {
		msg.Add(tagOrdType, p.OrdType)
	}
	if p.Price != "" {
		msg.Add(tagPrice, p.Price)
	}
	if p.OrdType == OrdTypeStopLimit {
		msg.Add(tagStopPx, p.StopPx)
	}
	if p.TimeInForce != "" {
		msg.Add(tagTimeInForce, p.TimeInForce)
	}
	if p.OverfillProtection {
		msg.Add(tagOverfillProtection, "Y")
	}
	return msg, nil
}

// OrderCancelRequestParams carries the fields for an
// OrderCancelRequest. Set CancelAll to use the open-order mass-cancel
// shorthand, which requires none of the other fields.
type OrderCancelRequestParams struct {
	CancelAll   bool
	ClOrdID     string
	OrderID     string
	OrigClOrdID string
	Side        string
	Symbol      string
}

// massCancelSentinel is the shared placeholder value the open-order
// mass-cancel shorthand uses for OrderID/OrigClOrdID/ClOrdID (Symbol is
// set to "NA" instead).
const massCancelSentinel = "OPEN_ORDER"

// OrderCancelRequest builds an OrderCancelRequest, or, when CancelAll is
// set, the open-order mass-cancel shorthand (sentinel ids, Symbol="NA",
// tag 7559="Y").
func (b *Builder) OrderCancelRequest(p OrderCancelRequestParams) (*fixmsg.Message, error) {
	msg := b.header(MsgTypeOrderCancelRequest)

	if p.CancelAll {
		msg.Add(tagOrderID, massCancelSentinel)
		msg.Add(tagOrigClOrdID, massCancelSentinel)
		msg.Add(tagClOrdID, massCancelSentinel)
		msg.Add(tagSymbol, "NA")
		msg.Add(tagSide, "1")
		msg.Add(tagMassCancelAllOrders, "Y")
		return msg, nil
	}

	if p.ClOrdID == "" || p.OrderID == "" || p.OrigClOrdID == "" || p.Side == "" || p.Symbol == "" {
		return nil, fmt.Errorf("%w: ClOrdID, OrderID, OrigClOrdID, Side, and Symbol are required unless CancelAll is set", ErrInvalidArguments)
	}
	msg.Add(tagOrderID, p.OrderID)
	msg.Add(tagOrigClOrdID, p.OrigClOrdID)
	msg.Add(tagClOrdID, p.ClOrdID)
	msg.Add(tagSide, p.Side)
	msg.Add(tagSymbol, p.Symbol)
	return msg, nil
}

// OrderMassStatusRequest builds a request for the status of every open
// order, returning the message and the generated MassStatusReqID.
func (b *Builder) OrderMassStatusRequest() (*fixmsg.Message, string) {
	id := b.ids.NextID()
	msg := b.header(MsgTypeOrderMassStatusRequest)
	msg.Add(tagMassStatusReqID, id)
	msg.Add(tagMassStatusReqType, "8")
	return msg, id
}

// MarketDataRequestParams carries the fields for a MarketDataRequest.
// RequestType "2" (unsubscribe) requires UnsubscribeFrom to be set to
// the correlation id of the original subscription.
type MarketDataRequestParams struct {
	RequestType     string // "1" snapshot, "T" subscribe, "2" unsubscribe
	Symbols         []string
	MarketDepth     int
	AggregateBook   bool
	UnsubscribeFrom string
}

// MarketDataRequest builds a MarketDataRequest. Per the redesigned
// uniform-return contract (see DESIGN.md), it always returns a
// correlation id alongside the message; on unsubscribe the id is empty
// since the caller already knows which subscription it is canceling.
func (b *Builder) MarketDataRequest(p MarketDataRequestParams) (*fixmsg.Message, string, error) {
	if p.RequestType == "2" && p.UnsubscribeFrom == "" {
		return nil, "", fmt.Errorf("%w: UnsubscribeFrom required to unsubscribe", ErrInvalidArguments)
	}
	if p.RequestType != "2" && len(p.Symbols) == 0 {
		return nil, "", fmt.Errorf("%w: at least one symbol required", ErrInvalidArguments)
	}

	msg := b.header(MsgTypeMarketDataRequest)

	var correlationID string
	if p.RequestType == "2" {
		msg.Add(tagMDReqID, p.UnsubscribeFrom)
	} else {
		correlationID = b.ids.NextID()
		msg.Add(tagMDReqID, correlationID)
	}

	msg.Add(tagSubscriptionReqType, p.RequestType)
	if p.MarketDepth != 0 {
		msg.AddInt(tagMarketDepth, p.MarketDepth)
	}
	msg.Add(tagMDUpdateType, "1")
	if p.RequestType != "2" {
		if p.AggregateBook {
			msg.Add(tagAggregatedBook, "Y")
		}

		entryTypes := []string{"0", "1"}
		if p.RequestType == "T" {
			entryTypes = []string{"0", "1", "2"}
		}
		msg.AddInt(tagNoMDEntryTypes, len(entryTypes))
		for _, et := range entryTypes {
			msg.Add(tagMDEntryType, et)
		}

		msg.AddInt(tagNoRelatedSym, len(p.Symbols))
		for _, sym := range p.Symbols {
			msg.Add(tagSymbol, sym)
		}
	}

	return msg, correlationID, nil
}

// TradeCaptureReportRequest builds a request for trade capture reports.
// SubscriptionRequestType is "1" (snapshot plus updates) unless
// updatesOnly is set, in which case it is "9" (updates only).
func (b *Builder) TradeCaptureReportRequest(updatesOnly bool) (*fixmsg.Message, string) {
	id := b.ids.NextID()
	msg := b.header(MsgTypeTradeCaptureReportRequest)
	msg.Add(tagTradeReportReqID, id)
	msg.Add(tagTradeReportReqType, "0")
	if !updatesOnly {
		msg.Add(tagSubscriptionReqType, "1")
	} else {
		msg.Add(tagSubscriptionReqType, "9")
	}
	return msg, id
}

// TradeCaptureReportAck builds an acknowledgment for a given
// TradeReportID.
func (b *Builder) TradeCaptureReportAck(tradeReportID string) *fixmsg.Message {
	msg := b.header(MsgTypeTradeCaptureReportAck)
	msg.Add(tagTradeReportID, tradeReportID)
	msg.Add(tagSymbol, "NA")
	return msg
}
