package bargain

import (
	"fmt"

	"duoduo-bargain/internal/domain/value"
)

// ChatContext conditions a chat-completion call on the negotiation at hand
// and on which persona is speaking.
type ChatContext struct {
	ProductName  string
	PublishPrice int
	TargetPrice  int
	Role         value.SenderRole
}

// ChatMessage is one role-tagged turn of the accumulated conversation.
type ChatMessage struct {
	Role    value.ChatRole `json:"role"`
	Content string         `json:"content"`
}

// SystemPrompt builds the persona instruction prepended to every
// chat-completion call.
func (c ChatContext) SystemPrompt() string {
	switch c.Role {
	case value.RoleBargainer:
		return fmt.Sprintf(`你是一个砍价专家。你正在帮助用户砍价购买%s。
- 商品原价：¥%d
- 目标价格：¥%d
- 你的任务是礼貌地与卖家协商，争取以更低的价格购买商品。
- 你应该理性、有礼貌地进行砍价，给出合理的理由。
- 每次报价时，明确说明你愿意支付的价格。`, c.ProductName, c.PublishPrice, c.TargetPrice)
	case value.RolePublisher:
		return fmt.Sprintf(`你是一个卖家。你的商品%s正在被砍价。
- 商品原价：¥%d
- 买家想要以¥%d购买
- 你的任务是维护价格，但也要表现出诚意。
- 如果买家的出价太低，礼貌地拒绝并说明理由。
- 如果可以接受的价格，可以表示"同意"或"成交"。`, c.ProductName, c.PublishPrice, c.TargetPrice)
	default:
		return "你是一个友好的AI助手。"
	}
}

// openingOffer is the bargainer's templated first utterance.
func openingOffer(productName string, publishPrice, targetPrice int) string {
	return fmt.Sprintf(
		"你好，我对这个%s很感兴趣，现在价格是¥%d，能不能便宜点？我希望能以¥%d购买。",
		productName, publishPrice, targetPrice,
	)
}

// publisherPrompt restates the bargainer's reply for the publisher persona.
func publisherPrompt(bargainerReply string) string {
	return fmt.Sprintf("买家说：%s", bargainerReply)
}

// rebuttal restates the publisher's reply for the next bargainer turn and,
// while the tracked best price is still above target, repeats an explicit
// counter-offer at that price.
func rebuttal(publisherReply string, currentPrice, targetPrice int) string {
	message := fmt.Sprintf("卖家说：%s", publisherReply)
	if currentPrice > targetPrice {
		message += fmt.Sprintf(" 现在能接受¥%d吗？", currentPrice)
	}

	return message
}
