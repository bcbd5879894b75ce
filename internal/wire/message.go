// Package wire implements message framing for the PostgreSQL frontend/backend
// protocol, version 3.0.
package wire

import "fmt"

// RequestType is a message type byte sent by the frontend.
type RequestType byte

const (
	Bind                 RequestType = 'B'
	Close                RequestType = 'C'
	CopyFail             RequestType = 'f'
	Describe             RequestType = 'D'
	Execute              RequestType = 'E'
	Flush                RequestType = 'H'
	Parse                RequestType = 'P'
	PasswordMessage      RequestType = 'p'
	Query                RequestType = 'Q'
	SASLInitialResponse  RequestType = 'p'
	SASLResponse         RequestType = 'p'
	Sync                 RequestType = 'S'
	Terminate            RequestType = 'X'
)

// ResponseType is a message type byte sent by the backend.
type ResponseType byte

const (
	AuthenticationRequest ResponseType = 'R'
	BackendKeyData        ResponseType = 'K'
	BindComplete          ResponseType = '2'
	CloseComplete         ResponseType = '3'
	CommandComplete       ResponseType = 'C'
	DataRow               ResponseType = 'D'
	EmptyQueryResponse    ResponseType = 'I'
	ErrorResponse         ResponseType = 'E'
	NoData                ResponseType = 'n'
	NoticeResponse        ResponseType = 'N'
	ParameterDescription  ResponseType = 't'
	ParameterStatus       ResponseType = 'S'
	ParseComplete         ResponseType = '1'
	PortalSuspended       ResponseType = 's'
	ReadyForQuery         ResponseType = 'Z'
	RowDescription        ResponseType = 'T'
)

func (r ResponseType) String() string {
	return fmt.Sprintf("%q", byte(r))
}

// AuthCode is the sub-code carried by an AuthenticationRequest message.
type AuthCode int32

const (
	AuthOK              AuthCode = 0
	AuthKerberosV5      AuthCode = 2
	AuthCleartext       AuthCode = 3
	AuthMD5             AuthCode = 5
	AuthSCMCredential   AuthCode = 6
	AuthGSS             AuthCode = 7
	AuthGSSContinue     AuthCode = 8
	AuthSSPI            AuthCode = 9
	AuthSASL            AuthCode = 10
	AuthSASLContinue    AuthCode = 11
	AuthSASLFinal       AuthCode = 12
)

// ProtocolVersion30 is the only startup protocol version this client speaks.
const ProtocolVersion30 = 3<<16 | 0

// SSLRequestCode is the magic number sent as the payload of the 8-byte
// pre-startup SSLRequest packet.
const SSLRequestCode = 1234<<16 | 5679

// TransactionStatus is the single byte carried by ReadyForQuery.
type TransactionStatus byte

const (
	TxIdle       TransactionStatus = 'I'
	TxInBlock    TransactionStatus = 'T'
	TxInFailed   TransactionStatus = 'E'
)
