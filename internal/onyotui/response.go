package onyotui

import (
	"encoding/json"
	"fmt"

	"github.com/onyo-cli/onyo/internal/ierr"
)

// CLIResponse is onyo's structured JSON output envelope, generalized from
// the teacher's internal/core/cli_response.go. Only "get --json" emits it;
// the other subcommands accept --json and print their usual output.
type CLIResponse struct {
	Success bool            `json:"success"`
	Data    interface{}     `json:"data,omitempty"`
	Error   *CLIErrorDetail `json:"error,omitempty"`
}

// CLIErrorDetail is a machine-readable error code plus a human message.
type CLIErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Exit codes. get follows the grep convention (spec §4.7); everything else
// follows the teacher's general/invalid-arguments/internal-error split.
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitInvalidArguments = 2
	ExitNoRowsFound      = 1
)

const (
	ErrCodeNotARepository  = "NOT_A_REPOSITORY"
	ErrCodeNoSuchAsset     = "NO_SUCH_ASSET"
	ErrCodeNoSuchDirectory = "NO_SUCH_DIRECTORY"
	ErrCodeNameCollision   = "NAME_COLLISION"
	ErrCodeInvalidArgs     = "INVALID_ARGUMENTS"
	ErrCodeDirtyTree       = "DIRTY_WORKING_TREE"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// EmitJSONSuccess writes a successful CLIResponse to stdout.
func EmitJSONSuccess(data interface{}) {
	resp := CLIResponse{Success: true, Data: data}
	b, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Println(string(b))
}

// EmitJSONError writes a failed CLIResponse to stdout (not stderr, so
// machine consumers reading stdout always get the envelope).
func EmitJSONError(code, message string) {
	resp := CLIResponse{Success: false, Error: &CLIErrorDetail{Code: code, Message: message}}
	b, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Println(string(b))
}

// ErrorCode maps a typed onyo error to its machine-readable code, falling
// back to a generic internal-error code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case ierr.IsNotARepository(err):
		return ErrCodeNotARepository
	case ierr.IsNoSuchAsset(err):
		return ErrCodeNoSuchAsset
	case ierr.IsNoSuchDirectory(err):
		return ErrCodeNoSuchDirectory
	case ierr.IsNameCollision(err):
		return ErrCodeNameCollision
	case ierr.IsDirtyWorkingTree(err):
		return ErrCodeDirtyTree
	case ierr.IsInvalidAssetName(err):
		return ErrCodeInvalidArgs
	default:
		return ErrCodeInternalError
	}
}
