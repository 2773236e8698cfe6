package net

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	. "vending/internal/common"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrInvalidReportType  = errors.New("invalid report type")
	ErrMessageTooShort    = errors.New("message too short")
	ErrMessageTooLong     = errors.New("message too long")
	ErrFieldOverflow      = errors.New("field does not fit its wire size")
)

type MessageType uint16

const (
	Heartbeat MessageType = iota
	InsertCoins
	SelectProduct
	QueryStock
	QueryCoins
)

type ReportType uint8

const (
	AckReport ReportType = iota
	SaleReport
	StockReport
	CoinReport
	ErrorReport
)

type Message interface {
	GetType() MessageType
	Serialize() ([]byte, error)
}

// Message format constants
const (
	BaseMessageHeaderLen     = 2
	InsertCoinsHeaderLen     = 2
	InsertCoinsCoinLen       = 4
	SlotMessageHeaderLen     = 2
	frameHeaderLen           = 2
	reportFixedHeaderLen     = 1 + 8 + 16 + 8 + 2 + 4 + 2
	reportCoinLen            = 4 + 4
	MAX_RECV_SIZE            = 4 * 1024
	maxCoinsPerInsertMessage = (MAX_RECV_SIZE - BaseMessageHeaderLen - InsertCoinsHeaderLen) / InsertCoinsCoinLen
)

// ---- Framing ----

// ReadFrame reads one length prefixed frame.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [frameHeaderLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint16(header[:])
	if int(n) > MAX_RECV_SIZE {
		return nil, ErrMessageTooLong
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteFrame writes buf prefixed by its length.
func WriteFrame(w io.Writer, buf []byte) error {
	if len(buf) > MAX_RECV_SIZE {
		return ErrMessageTooLong
	}
	frame := make([]byte, frameHeaderLen+len(buf))
	binary.BigEndian.PutUint16(frame[:frameHeaderLen], uint16(len(buf)))
	copy(frame[frameHeaderLen:], buf)
	_, err := w.Write(frame)
	return err
}

// ---- Client messages ----

// Generic message type.
type BaseMessage struct {
	TypeOf MessageType // 2 bytes
}

func (m BaseMessage) GetType() MessageType {
	return m.TypeOf
}

func (m BaseMessage) Serialize() ([]byte, error) {
	buf := make([]byte, BaseMessageHeaderLen)
	binary.BigEndian.PutUint16(buf, uint16(m.TypeOf))
	return buf, nil
}

func ParseMessage(msg []byte) (Message, error) {
	if len(msg) < BaseMessageHeaderLen {
		return BaseMessage{}, ErrMessageTooShort
	}

	typeOf := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	msg = msg[2:]
	switch typeOf {
	case Heartbeat, QueryCoins:
		return BaseMessage{TypeOf: typeOf}, nil
	case InsertCoins:
		return parseInsertCoins(msg)
	case SelectProduct, QueryStock:
		return parseSlotMessage(typeOf, msg)
	default:
		return BaseMessage{}, ErrInvalidMessageType
	}
}

type InsertCoinsMessage struct {
	BaseMessage
	Coins []Money // n × 4 bytes, in cents
}

func NewInsertCoinsMessage(coins ...Money) InsertCoinsMessage {
	return InsertCoinsMessage{BaseMessage: BaseMessage{TypeOf: InsertCoins}, Coins: coins}
}

func (m InsertCoinsMessage) Serialize() ([]byte, error) {
	if len(m.Coins) > maxCoinsPerInsertMessage {
		return nil, ErrMessageTooLong
	}
	buf := make([]byte, BaseMessageHeaderLen+InsertCoinsHeaderLen+len(m.Coins)*InsertCoinsCoinLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(InsertCoins))
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(m.Coins)))
	offset := 4
	for _, coin := range m.Coins {
		if coin.Cents() > math.MaxUint32 {
			return nil, fmt.Errorf("%w: coin %s", ErrFieldOverflow, coin)
		}
		binary.BigEndian.PutUint32(buf[offset:offset+4], uint32(coin.Cents()))
		offset += InsertCoinsCoinLen
	}
	return buf, nil
}

func parseInsertCoins(msg []byte) (InsertCoinsMessage, error) {
	if len(msg) < InsertCoinsHeaderLen {
		return InsertCoinsMessage{}, ErrMessageTooShort
	}
	n := int(binary.BigEndian.Uint16(msg[0:2]))
	msg = msg[2:]
	if len(msg) < n*InsertCoinsCoinLen {
		return InsertCoinsMessage{}, ErrMessageTooShort
	}

	coins := make([]Money, n)
	for i := range coins {
		coins[i] = Cents(binary.BigEndian.Uint32(msg[i*4 : i*4+4]))
	}
	return NewInsertCoinsMessage(coins...), nil
}

// SlotMessage carries a slot id; used by SelectProduct and QueryStock.
type SlotMessage struct {
	BaseMessage
	Slot uint16 // 2 bytes
}

func NewSelectProductMessage(slot uint16) SlotMessage {
	return SlotMessage{BaseMessage: BaseMessage{TypeOf: SelectProduct}, Slot: slot}
}

func NewQueryStockMessage(slot uint16) SlotMessage {
	return SlotMessage{BaseMessage: BaseMessage{TypeOf: QueryStock}, Slot: slot}
}

func (m SlotMessage) Serialize() ([]byte, error) {
	buf := make([]byte, BaseMessageHeaderLen+SlotMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(m.TypeOf))
	binary.BigEndian.PutUint16(buf[2:4], m.Slot)
	return buf, nil
}

func parseSlotMessage(typeOf MessageType, msg []byte) (SlotMessage, error) {
	if len(msg) < SlotMessageHeaderLen {
		return SlotMessage{}, ErrMessageTooShort
	}
	return SlotMessage{
		BaseMessage: BaseMessage{TypeOf: typeOf},
		Slot:        binary.BigEndian.Uint16(msg[0:2]),
	}, nil
}

// ---- Server reports ----

type CoinCount struct {
	Denomination Money  // 4 bytes, in cents
	Count        uint64 // 4 bytes
}

type Report struct {
	ReportType ReportType  // 1 byte
	Timestamp  uint64      // 8 bytes
	UUID       uuid.UUID   // 16 bytes
	Value      uint64      // 8 bytes
	NameLen    uint16      // 2 bytes
	ErrStrLen  uint32      // 4 bytes
	NCoins     uint16      // 2 bytes
	Name       string      // n bytes
	Err        string      // n bytes
	Coins      []CoinCount // n × 8 bytes
}

// Serialize converts the report to be sent on the wire.
func (r *Report) Serialize() ([]byte, error) {
	totalSize := reportFixedHeaderLen + len(r.Name) + len(r.Err) + len(r.Coins)*reportCoinLen
	if totalSize > MAX_RECV_SIZE {
		return nil, ErrMessageTooLong
	}

	buf := make([]byte, totalSize)
	buf[0] = byte(r.ReportType)
	binary.BigEndian.PutUint64(buf[1:9], r.Timestamp)
	copy(buf[9:25], r.UUID[:])
	binary.BigEndian.PutUint64(buf[25:33], r.Value)
	binary.BigEndian.PutUint16(buf[33:35], uint16(len(r.Name)))
	binary.BigEndian.PutUint32(buf[35:39], uint32(len(r.Err)))
	binary.BigEndian.PutUint16(buf[39:41], uint16(len(r.Coins)))

	offset := reportFixedHeaderLen
	offset += copy(buf[offset:], r.Name)
	offset += copy(buf[offset:], r.Err)
	for _, coin := range r.Coins {
		if coin.Denomination.Cents() > math.MaxUint32 || coin.Count > math.MaxUint32 {
			return nil, fmt.Errorf("%w: coin %s", ErrFieldOverflow, coin.Denomination)
		}
		binary.BigEndian.PutUint32(buf[offset:offset+4], uint32(coin.Denomination.Cents()))
		binary.BigEndian.PutUint32(buf[offset+4:offset+8], uint32(coin.Count))
		offset += reportCoinLen
	}
	return buf, nil
}

func ParseReport(buf []byte) (Report, error) {
	if len(buf) < reportFixedHeaderLen {
		return Report{}, ErrMessageTooShort
	}

	r := Report{
		ReportType: ReportType(buf[0]),
		Timestamp:  binary.BigEndian.Uint64(buf[1:9]),
		Value:      binary.BigEndian.Uint64(buf[25:33]),
		NameLen:    binary.BigEndian.Uint16(buf[33:35]),
		ErrStrLen:  binary.BigEndian.Uint32(buf[35:39]),
		NCoins:     binary.BigEndian.Uint16(buf[39:41]),
	}
	if r.ReportType > ErrorReport {
		return Report{}, ErrInvalidReportType
	}
	copy(r.UUID[:], buf[9:25])

	// Calculate expected total length.
	expectedTotalLen := reportFixedHeaderLen + int(r.NameLen) + int(r.ErrStrLen) + int(r.NCoins)*reportCoinLen
	if len(buf) < expectedTotalLen {
		return Report{}, ErrMessageTooShort
	}

	offset := reportFixedHeaderLen
	r.Name = string(buf[offset : offset+int(r.NameLen)])
	offset += int(r.NameLen)
	r.Err = string(buf[offset : offset+int(r.ErrStrLen)])
	offset += int(r.ErrStrLen)
	if r.NCoins > 0 {
		r.Coins = make([]CoinCount, r.NCoins)
		for i := range r.Coins {
			r.Coins[i] = CoinCount{
				Denomination: Cents(binary.BigEndian.Uint32(buf[offset : offset+4])),
				Count:        uint64(binary.BigEndian.Uint32(buf[offset+4 : offset+8])),
			}
			offset += reportCoinLen
		}
	}
	return r, nil
}

// Breakdown returns the report coins as a breakdown.
func (r Report) Breakdown() Breakdown {
	if len(r.Coins) == 0 {
		return nil
	}
	out := make(Breakdown, len(r.Coins))
	for _, coin := range r.Coins {
		out[coin.Denomination] = coin.Count
	}
	return out
}

// formatCents renders a wire amount, falling back to raw cents when it does
// not fit Money.
func formatCents(cents uint64) string {
	m, err := FromCents(cents)
	if err != nil {
		return fmt.Sprintf("%d cents", cents)
	}
	return m.String()
}

func (r Report) String() string {
	switch r.ReportType {
	case AckReport:
		return fmt.Sprintf("Inserted: %s", formatCents(r.Value))
	case SaleReport:
		change := "none"
		if len(r.Coins) > 0 {
			change = r.Breakdown().String()
		}
		return fmt.Sprintf("Sale %s: %s (%s), change: %s",
			r.UUID, r.Name, formatCents(r.Value), change)
	case StockReport:
		return fmt.Sprintf("Units: %d", r.Value)
	case CoinReport:
		return fmt.Sprintf("Coins: %s", r.Breakdown())
	case ErrorReport:
		return fmt.Sprintf("Error: %s", r.Err)
	}
	return "unknown report"
}

func newReport(typeOf ReportType) Report {
	return Report{ReportType: typeOf, Timestamp: uint64(time.Now().UnixNano())}
}

// coinCounts flattens counts largest denomination first.
func coinCounts(counts map[Money]uint64) []CoinCount {
	out := make([]CoinCount, 0, len(counts))
	for denomination, count := range counts {
		out = append(out, CoinCount{Denomination: denomination, Count: count})
	}
	slices.SortFunc(out, func(a, b CoinCount) int {
		return b.Denomination.Cmp(a.Denomination)
	})
	return out
}

func generateSaleReport(sale Sale) (Report, error) {
	id, err := uuid.Parse(sale.UUID)
	if err != nil {
		return Report{}, fmt.Errorf("invalid sale uuid: %w", err)
	}
	r := newReport(SaleReport)
	r.UUID = id
	r.Value = uint64(sale.Product.Price.Cents())
	r.Name = sale.Product.Name
	r.Coins = coinCounts(sale.Change)
	return r, nil
}

func generateErrorReport(err error) Report {
	r := newReport(ErrorReport)
	r.Err = err.Error()
	return r
}

func generateAckReport(inserted Money) Report {
	r := newReport(AckReport)
	r.Value = uint64(inserted.Cents())
	return r
}

func generateStockReport(units uint64) Report {
	r := newReport(StockReport)
	r.Value = units
	return r
}

func generateCoinReport(counts map[Money]uint64) Report {
	r := newReport(CoinReport)
	r.Coins = coinCounts(counts)
	return r
}
