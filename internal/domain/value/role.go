package value

import (
	"fmt"

	"duoduo-bargain/internal/domain"
	"duoduo-bargain/pkg/errcodes"
)

// SenderRole marks which side of the negotiation produced a message.
type SenderRole string

const (
	RolePublisher SenderRole = "publisher"
	RoleBargainer SenderRole = "bargainer"
)

func (r SenderRole) String() string {
	return string(r)
}

func ParseSenderRole(s string) (SenderRole, error) {
	switch SenderRole(s) {
	case RolePublisher, RoleBargainer:
		return SenderRole(s), nil
	default:
		return "", domain.NewError(errcodes.ValidationError, fmt.Sprintf("unknown sender role %q", s))
	}
}

// ChatRole is the role tag of a chat-completion message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)
