package frameparser

import (
	qpack "h3wire/pkg/qpack"
)

type FrameType = uint64

// frame types according to RFC 9114
const (
	FrameData        FrameType = 0x00
	FrameHeaders     FrameType = 0x01
	FrameCancelPush  FrameType = 0x03
	FrameSettings    FrameType = 0x04
	FramePushPromise FrameType = 0x05
	FrameGoAway      FrameType = 0x07
	FrameMaxPushId   FrameType = 0x0D
)

// maxFrameType bounds the body parser dispatch table. Every type id at or
// beyond it, and every gap below it (0x02, 0x06, the reserved range), is
// handled by the unknown body parser and ignored.
const maxFrameType = FrameMaxPushId + 1

// Frame layout according to RFC 9114

/*
frame{
	Type(i)
	Length(i)
	Payload(..)
}
*/

// basic frame interface

type Frame interface {
	Type() FrameType
	Length() uint64
	// the theoretical max defined by RFC 9000 is 2^62-1, hence uint64
}

// ensure every frame type implements the frame interface

var _ Frame = (*DataFrame)(nil)
var _ Frame = (*HeadersFrame)(nil)
var _ Frame = (*CancelPushFrame)(nil)
var _ Frame = (*SettingsFrame)(nil)
var _ Frame = (*PushPromiseFrame)(nil)
var _ Frame = (*GoAwayFrame)(nil)
var _ Frame = (*MaxPushIdFrame)(nil)

// ====== DATA FRAME ======

// DataFrame carries one chunk of request or response payload. When a DATA
// frame spans several parse calls the listener observes one DataFrame per
// available chunk, so Data is not necessarily the whole frame payload.
type DataFrame struct {
	Data []byte
}

func (df *DataFrame) Type() FrameType {
	return FrameData
}

func (df *DataFrame) Length() uint64 {
	return uint64(len(df.Data))
}

// ====== HEADERS FRAME ======

type HeadersFrame struct {
	Block  []byte // compressed field section using QPACK
	Fields []qpack.HeaderField
}

func (hf *HeadersFrame) Type() FrameType {
	return FrameHeaders
}

func (hf *HeadersFrame) Length() uint64 {
	return uint64(len(hf.Block))
}

// ====== CANCEL_PUSH FRAME ======

type CancelPushFrame struct {
	PushId uint64
}

func (cf *CancelPushFrame) Type() FrameType {
	return FrameCancelPush
}

func (cf *CancelPushFrame) Length() uint64 {
	return varintLen(cf.PushId)
}

// ====== SETTINGS FRAME ======

// Setting is a single (identifier, value) pair. Order is preserved because
// the wire encoding is an ordered sequence, not a map.
type Setting struct {
	Id    uint64
	Value uint64
}

type SettingsFrame struct {
	Settings []Setting
}

func (sf *SettingsFrame) Type() FrameType {
	return FrameSettings
}

func (sf *SettingsFrame) Length() uint64 {
	var n uint64
	for _, s := range sf.Settings {
		n += varintLen(s.Id) + varintLen(s.Value)
	}
	return n
}

// ====== PUSH_PROMISE FRAME ======

type PushPromiseFrame struct {
	PushId uint64
	Block  []byte // compressed field section using QPACK
	Fields []qpack.HeaderField
}

func (pf *PushPromiseFrame) Type() FrameType {
	return FramePushPromise
}

func (pf *PushPromiseFrame) Length() uint64 {
	return varintLen(pf.PushId) + uint64(len(pf.Block))
}

// ====== GOAWAY FRAME ======

type GoAwayFrame struct {
	Id uint64 // last stream or push id the peer will process
}

func (gf *GoAwayFrame) Type() FrameType {
	return FrameGoAway
}

func (gf *GoAwayFrame) Length() uint64 {
	return varintLen(gf.Id)
}

// ====== MAX_PUSH_ID FRAME ======

type MaxPushIdFrame struct {
	Id uint64
}

func (mf *MaxPushIdFrame) Type() FrameType {
	return FrameMaxPushId
}

func (mf *MaxPushIdFrame) Length() uint64 {
	return varintLen(mf.Id)
}
