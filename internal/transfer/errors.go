package transfer

import (
	"errors"
	"fmt"

	"github.com/kiloframe/beam/internal/ui"
)

var (
	ErrSignalingError   = errors.New("signaling server error")
	ErrChannelClosed    = errors.New("channel closed")
	ErrChannelNotOpen   = errors.New("data channel not open")
	ErrTransferDeclined = errors.New("receiver declined the transfer")
	ErrBufferTimeout    = errors.New("buffer drain timeout")
	ErrUnknownFile      = errors.New("unknown file id")
	ErrTokenMismatch    = errors.New("file token mismatch")
	ErrHandshakeParse   = errors.New("failed to parse handshake payload")
	ErrConnectionFailed = errors.New("peer connection failed")
)

type TransferError struct {
	Op      string
	File    string
	Err     error
	Details string
}

func (e *TransferError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.File, e.Err)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

func (e *TransferError) Print() {
	ui.PrintError(e.Error())
}

func NewError(op string, err error) *TransferError {
	return &TransferError{Op: op, Err: err}
}

func NewFileError(op, file string, err error) *TransferError {
	return &TransferError{Op: op, File: file, Err: err}
}

func WrapError(op string, err error, details string) *TransferError {
	return &TransferError{Op: op, Err: err, Details: details}
}

func PrintErr(err error) {
	ui.PrintError(err.Error())
}
