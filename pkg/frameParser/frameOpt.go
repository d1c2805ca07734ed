package frameparser

import (
	"bytes"
)

// the workflow is constant for every frame: encode the frame type as varint,
// encode the payload length as varint, then write the payload bytes

func encodeFrameHeader(buf *bytes.Buffer, frameType FrameType, length uint64) {
	buf.Write(encodeVarint(frameType))
	buf.Write(encodeVarint(length))
}

// -------------------- DATA FRAME OPERATIONS ----------------------

func (df *DataFrame) Encode() ([]byte, error) {
	buf := &bytes.Buffer{}
	encodeFrameHeader(buf, FrameData, df.Length())
	buf.Write(df.Data)
	return buf.Bytes(), nil
}

// -------------------- HEADERS FRAME OPERATIONS ----------------------

func (hf *HeadersFrame) Encode() ([]byte, error) {
	buf := &bytes.Buffer{}
	encodeFrameHeader(buf, FrameHeaders, hf.Length())
	buf.Write(hf.Block)
	return buf.Bytes(), nil
}

// -------------------- CANCEL_PUSH FRAME OPERATIONS ----------------------

func (cf *CancelPushFrame) Encode() ([]byte, error) {
	buf := &bytes.Buffer{}
	encodeFrameHeader(buf, FrameCancelPush, cf.Length())
	buf.Write(encodeVarint(cf.PushId))
	return buf.Bytes(), nil
}

// -------------------- SETTINGS FRAME OPERATIONS ----------------------

func (sf *SettingsFrame) Encode() ([]byte, error) {
	buf := &bytes.Buffer{}
	encodeFrameHeader(buf, FrameSettings, sf.Length())
	for _, s := range sf.Settings {
		buf.Write(encodeVarint(s.Id))
		buf.Write(encodeVarint(s.Value))
	}
	return buf.Bytes(), nil
}

// -------------------- PUSH_PROMISE FRAME OPERATIONS ----------------------

func (pf *PushPromiseFrame) Encode() ([]byte, error) {
	buf := &bytes.Buffer{}
	encodeFrameHeader(buf, FramePushPromise, pf.Length())
	buf.Write(encodeVarint(pf.PushId))
	buf.Write(pf.Block)
	return buf.Bytes(), nil
}

// -------------------- GOAWAY FRAME OPERATIONS ----------------------

func (gf *GoAwayFrame) Encode() ([]byte, error) {
	buf := &bytes.Buffer{}
	encodeFrameHeader(buf, FrameGoAway, gf.Length())
	buf.Write(encodeVarint(gf.Id))
	return buf.Bytes(), nil
}

// -------------------- MAX_PUSH_ID FRAME OPERATIONS ----------------------

func (mf *MaxPushIdFrame) Encode() ([]byte, error) {
	buf := &bytes.Buffer{}
	encodeFrameHeader(buf, FrameMaxPushId, mf.Length())
	buf.Write(encodeVarint(mf.Id))
	return buf.Bytes(), nil
}
