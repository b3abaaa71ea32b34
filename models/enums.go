package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

type ContractStatus string

const (
	ContractStatusDraft      ContractStatus = "Draft"
	ContractStatusPending    ContractStatus = "Pending"
	ContractStatusActive     ContractStatus = "Active"
	ContractStatusExpired    ContractStatus = "Expired"
	ContractStatusCompleted  ContractStatus = "Completed"
	ContractStatusTerminated ContractStatus = "Terminated"
	ContractStatusCancelled  ContractStatus = "Cancelled"
)

// adjacency of the contract lifecycle; terminal states map to nil
var contractStatusTransitions = map[ContractStatus][]ContractStatus{
	ContractStatusDraft:      {ContractStatusPending, ContractStatusActive, ContractStatusCancelled},
	ContractStatusPending:    {ContractStatusActive, ContractStatusCancelled},
	ContractStatusActive:     {ContractStatusExpired, ContractStatusCompleted, ContractStatusTerminated},
	ContractStatusExpired:    {ContractStatusCompleted, ContractStatusTerminated},
	ContractStatusCompleted:  nil,
	ContractStatusTerminated: nil,
	ContractStatusCancelled:  nil,
}

func (s ContractStatus) IsValid() bool {
	_, ok := contractStatusTransitions[s]
	return ok
}

func (s ContractStatus) CanTransitionTo(target ContractStatus) bool {
	for _, next := range contractStatusTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// AllowedNextContractStatuses returns the legal next states, for UI pickers.
func AllowedNextContractStatuses(s ContractStatus) []ContractStatus {
	next := contractStatusTransitions[s]
	out := make([]ContractStatus, len(next))
	copy(out, next)
	return out
}

func (s *ContractStatus) UnmarshalJSON(data []byte) error {
	str, err := unquote(data)
	if err != nil {
		return errors.New("contract status must be string")
	}
	v := ContractStatus(str)
	if !v.IsValid() {
		return errors.New("invalid contract status")
	}
	*s = v
	return nil
}

func (s ContractStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *ContractStatus) Scan(value interface{}) error {
	str, err := scanString(value)
	if err != nil {
		return fmt.Errorf("cannot convert %T to ContractStatus", value)
	}
	*s = ContractStatus(str)
	return nil
}

type PaymentType string

const (
	PaymentTypeCash         PaymentType = "Cash"
	PaymentTypeCheque       PaymentType = "Cheque"
	PaymentTypeBankTransfer PaymentType = "BankTransfer"
	PaymentTypeCard         PaymentType = "Card"
)

func (p PaymentType) IsValid() bool {
	switch p {
	case PaymentTypeCash, PaymentTypeCheque, PaymentTypeBankTransfer, PaymentTypeCard:
		return true
	}
	return false
}

// IsCheque reports whether the deposit/clearance sub-states apply.
func (p PaymentType) IsCheque() bool {
	return p == PaymentTypeCheque
}

func (p *PaymentType) UnmarshalJSON(data []byte) error {
	str, err := unquote(data)
	if err != nil {
		return errors.New("payment type must be string")
	}
	v := PaymentType(str)
	if !v.IsValid() {
		return errors.New("invalid payment type")
	}
	*p = v
	return nil
}

func (p PaymentType) Value() (driver.Value, error) {
	return string(p), nil
}

func (p *PaymentType) Scan(value interface{}) error {
	str, err := scanString(value)
	if err != nil {
		return fmt.Errorf("cannot convert %T to PaymentType", value)
	}
	*p = PaymentType(str)
	return nil
}

type PaymentStatus string

const (
	PaymentStatusPending          PaymentStatus = "Pending"
	PaymentStatusReceived         PaymentStatus = "Received"
	PaymentStatusDeposited        PaymentStatus = "Deposited"
	PaymentStatusPendingClearance PaymentStatus = "PendingClearance"
	PaymentStatusCleared          PaymentStatus = "Cleared"
	PaymentStatusBounced          PaymentStatus = "Bounced"
	PaymentStatusCancelled        PaymentStatus = "Cancelled"
	PaymentStatusReversed         PaymentStatus = "Reversed"
)

// adjacency of the receipt payment lifecycle; Reversed is entered by GL
// reversal only, never by a direct status change
var paymentStatusTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:          {PaymentStatusReceived, PaymentStatusCancelled},
	PaymentStatusReceived:         {PaymentStatusDeposited, PaymentStatusCleared, PaymentStatusBounced, PaymentStatusCancelled},
	PaymentStatusDeposited:        {PaymentStatusCleared, PaymentStatusBounced, PaymentStatusPendingClearance},
	PaymentStatusPendingClearance: {PaymentStatusCleared, PaymentStatusBounced},
	PaymentStatusCleared:          {PaymentStatusBounced},
	PaymentStatusBounced:          {PaymentStatusReceived},
	PaymentStatusCancelled:        nil,
	PaymentStatusReversed:         nil,
}

// deposit flow states only reachable for cheque receipts
var chequeOnlyPaymentStatuses = map[PaymentStatus]bool{
	PaymentStatusDeposited:        true,
	PaymentStatusPendingClearance: true,
}

func (s PaymentStatus) IsValid() bool {
	_, ok := paymentStatusTransitions[s]
	return ok
}

func (s PaymentStatus) IsTerminal() bool {
	return s.IsValid() && len(paymentStatusTransitions[s]) == 0
}

// CanTransitionPaymentStatus checks the adjacency for the given payment type.
// Non-cheque receipts skip the deposit flow entirely.
func CanTransitionPaymentStatus(from PaymentStatus, to PaymentStatus, paymentType PaymentType) bool {
	if chequeOnlyPaymentStatuses[to] && !paymentType.IsCheque() {
		return false
	}
	for _, next := range paymentStatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedNextPaymentStatuses returns the legal next states for UI pickers,
// already filtered by payment type.
func AllowedNextPaymentStatuses(from PaymentStatus, paymentType PaymentType) []PaymentStatus {
	var out []PaymentStatus
	for _, next := range paymentStatusTransitions[from] {
		if chequeOnlyPaymentStatuses[next] && !paymentType.IsCheque() {
			continue
		}
		out = append(out, next)
	}
	return out
}

func (s *PaymentStatus) UnmarshalJSON(data []byte) error {
	str, err := unquote(data)
	if err != nil {
		return errors.New("payment status must be string")
	}
	v := PaymentStatus(str)
	if !v.IsValid() {
		return errors.New("invalid payment status")
	}
	*s = v
	return nil
}

func (s PaymentStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *PaymentStatus) Scan(value interface{}) error {
	str, err := scanString(value)
	if err != nil {
		return fmt.Errorf("cannot convert %T to PaymentStatus", value)
	}
	*s = PaymentStatus(str)
	return nil
}

type ApprovalStatus string

const (
	ApprovalStatusPending     ApprovalStatus = "Pending"
	ApprovalStatusApproved    ApprovalStatus = "Approved"
	ApprovalStatusRejected    ApprovalStatus = "Rejected"
	ApprovalStatusNotRequired ApprovalStatus = "NotRequired"
)

// Approved/Rejected go back to Pending only through the admin reset
// operation, never through a regular status change.
var approvalStatusTransitions = map[ApprovalStatus][]ApprovalStatus{
	ApprovalStatusPending:     {ApprovalStatusApproved, ApprovalStatusRejected},
	ApprovalStatusApproved:    nil,
	ApprovalStatusRejected:    nil,
	ApprovalStatusNotRequired: nil,
}

func (s ApprovalStatus) IsValid() bool {
	_, ok := approvalStatusTransitions[s]
	return ok
}

func (s ApprovalStatus) CanTransitionTo(target ApprovalStatus) bool {
	for _, next := range approvalStatusTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsApprovedForPosting reports whether the document may reach the ledger.
func (s ApprovalStatus) IsApprovedForPosting() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusNotRequired
}

func (s *ApprovalStatus) UnmarshalJSON(data []byte) error {
	str, err := unquote(data)
	if err != nil {
		return errors.New("approval status must be string")
	}
	v := ApprovalStatus(str)
	if !v.IsValid() {
		return errors.New("invalid approval status")
	}
	*s = v
	return nil
}

func (s ApprovalStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *ApprovalStatus) Scan(value interface{}) error {
	str, err := scanString(value)
	if err != nil {
		return fmt.Errorf("cannot convert %T to ApprovalStatus", value)
	}
	*s = ApprovalStatus(str)
	return nil
}

type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "Draft"
	InvoiceStatusIssued        InvoiceStatus = "Issued"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PartiallyPaid"
	InvoiceStatusPaid          InvoiceStatus = "Paid"
	InvoiceStatusOverdue       InvoiceStatus = "Overdue"
	InvoiceStatusVoid          InvoiceStatus = "Void"
)

var invoiceStatusTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:         {InvoiceStatusIssued, InvoiceStatusVoid},
	InvoiceStatusIssued:        {InvoiceStatusPartiallyPaid, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusVoid},
	InvoiceStatusPartiallyPaid: {InvoiceStatusPaid, InvoiceStatusOverdue},
	InvoiceStatusOverdue:       {InvoiceStatusPartiallyPaid, InvoiceStatusPaid, InvoiceStatusVoid},
	InvoiceStatusPaid:          nil,
	InvoiceStatusVoid:          nil,
}

func (s InvoiceStatus) IsValid() bool {
	_, ok := invoiceStatusTransitions[s]
	return ok
}

func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	for _, next := range invoiceStatusTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

func (s *InvoiceStatus) UnmarshalJSON(data []byte) error {
	str, err := unquote(data)
	if err != nil {
		return errors.New("invoice status must be string")
	}
	v := InvoiceStatus(str)
	if !v.IsValid() {
		return errors.New("invalid invoice status")
	}
	*s = v
	return nil
}

func (s InvoiceStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *InvoiceStatus) Scan(value interface{}) error {
	str, err := scanString(value)
	if err != nil {
		return fmt.Errorf("cannot convert %T to InvoiceStatus", value)
	}
	*s = InvoiceStatus(str)
	return nil
}

type PropertyType string

const (
	PropertyTypeResidential PropertyType = "Residential"
	PropertyTypeCommercial  PropertyType = "Commercial"
	PropertyTypeMixed       PropertyType = "Mixed"
)

func (p PropertyType) IsValid() bool {
	switch p {
	case PropertyTypeResidential, PropertyTypeCommercial, PropertyTypeMixed:
		return true
	}
	return false
}

func (p *PropertyType) UnmarshalJSON(data []byte) error {
	str, err := unquote(data)
	if err != nil {
		return errors.New("property type must be string")
	}
	v := PropertyType(str)
	if !v.IsValid() {
		return errors.New("invalid property type")
	}
	*p = v
	return nil
}

func (p PropertyType) Value() (driver.Value, error) {
	return string(p), nil
}

func (p *PropertyType) Scan(value interface{}) error {
	str, err := scanString(value)
	if err != nil {
		return fmt.Errorf("cannot convert %T to PropertyType", value)
	}
	*p = PropertyType(str)
	return nil
}

type ChargeFrequency string

const (
	ChargeFrequencyOneTime   ChargeFrequency = "OneTime"
	ChargeFrequencyMonthly   ChargeFrequency = "Monthly"
	ChargeFrequencyQuarterly ChargeFrequency = "Quarterly"
	ChargeFrequencyYearly    ChargeFrequency = "Yearly"
)

func (f ChargeFrequency) IsValid() bool {
	switch f {
	case ChargeFrequencyOneTime, ChargeFrequencyMonthly, ChargeFrequencyQuarterly, ChargeFrequencyYearly:
		return true
	}
	return false
}

func (f *ChargeFrequency) UnmarshalJSON(data []byte) error {
	str, err := unquote(data)
	if err != nil {
		return errors.New("charge frequency must be string")
	}
	v := ChargeFrequency(str)
	if !v.IsValid() {
		return errors.New("invalid charge frequency")
	}
	*f = v
	return nil
}

func (f ChargeFrequency) Value() (driver.Value, error) {
	return string(f), nil
}

func (f *ChargeFrequency) Scan(value interface{}) error {
	str, err := scanString(value)
	if err != nil {
		return fmt.Errorf("cannot convert %T to ChargeFrequency", value)
	}
	*f = ChargeFrequency(str)
	return nil
}

// PostingReferenceType ties a voucher back to its source document.
type PostingReferenceType string

const (
	PostingReferenceTypeReceipt PostingReferenceType = "RCT"
	PostingReferenceTypeInvoice PostingReferenceType = "INV"
)

func (t PostingReferenceType) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *PostingReferenceType) Scan(value interface{}) error {
	str, err := scanString(value)
	if err != nil {
		return fmt.Errorf("cannot convert %T to PostingReferenceType", value)
	}
	*t = PostingReferenceType(str)
	return nil
}

func unquote(data []byte) (string, error) {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return "", errors.New("not a JSON string")
	}
	return string(data[1 : len(data)-1]), nil
}

func scanString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", errors.New("unsupported scan type")
	}
}

// DateString is a calendar date. On the wire it is "YYYY-MM-DD"; in the
// database it is a datetime column.
type DateString time.Time

const dateStringLayout = "2006-01-02"

func (t DateString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).Format(dateStringLayout) + `"`), nil
}

func (t *DateString) UnmarshalJSON(data []byte) error {
	str, err := unquote(data)
	if err != nil {
		return errors.New("date must be string")
	}
	if str == "" || str == "null" {
		*t = DateString(time.Time{})
		return nil
	}
	// older UI builds sent full timestamps
	parsed, err := time.Parse(dateStringLayout, str)
	if err != nil {
		parsed, err = time.Parse("2006-01-02T15:04:05", str)
		if err != nil {
			return errors.New("error parsing date, want YYYY-MM-DD")
		}
	}
	*t = DateString(parsed)
	return nil
}

func (t DateString) Time() time.Time {
	return time.Time(t)
}

func (t DateString) IsZero() bool {
	return time.Time(t).IsZero()
}

func (t DateString) Format() string {
	return time.Time(t).Format(dateStringLayout)
}

func (t *DateString) StartOfDayUTCTime(timezone string) error {
	// do nothing if the pointer is nil
	if t == nil {
		return nil
	}

	localTime := time.Time(*t)

	if timezone == "" {
		timezone = "Asia/Dubai"
	}

	location, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}

	localTimeInZone := time.Date(
		localTime.Year(), localTime.Month(), localTime.Day(),
		0, 0, 0, 0,
		location,
	)

	utcTime := localTimeInZone.In(time.UTC)
	*t = DateString(utcTime)

	return nil
}

func (t *DateString) EndOfDayUTCTime(timezone string) error {
	// do nothing if the pointer is nil
	if t == nil {
		return nil
	}

	localTime := time.Time(*t)

	if timezone == "" {
		timezone = "Asia/Dubai"
	}

	location, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}

	localTimeInZone := time.Date(
		localTime.Year(), localTime.Month(), localTime.Day(),
		23, 59, 59, 999, // Max nanoseconds
		location,
	)

	utcTime := localTimeInZone.In(time.UTC)
	*t = DateString(utcTime)

	return nil
}

// Value implements the driver.Valuer interface
func (t DateString) Value() (driver.Value, error) {
	return time.Time(t), nil
}

// Scan implements the sql.Scanner interface
func (t *DateString) Scan(value interface{}) error {
	if value == nil {
		*t = DateString(time.Time{})
		return nil
	}
	switch v := value.(type) {
	case time.Time:
		*t = DateString(v)
	default:
		return fmt.Errorf("cannot convert %T to DateString", value)
	}
	return nil
}

func (t *DateString) SetDefaultNowIfNil() *DateString {
	if t == nil {
		now := DateString(time.Now())
		return &now
	}
	return t
}

// NewDateString builds a DateString from a time.Time, truncating to the day.
func NewDateString(t time.Time) DateString {
	return DateString(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
}
