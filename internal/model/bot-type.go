package model

type BotType string

const (
	BotTypeChat = BotType("chat")
	BotTypeTool = BotType("tool")
)

// PayloadShape tells the gateway which field carries the request content.
type PayloadShape int8

const (
	PayloadShapeMessages = PayloadShape(iota)
	PayloadShapeToolData
)

var botTypePayloadShapes = map[BotType]PayloadShape{
	BotTypeChat: PayloadShapeMessages,
	BotTypeTool: PayloadShapeToolData,
}

func (t BotType) IsKnown() bool {
	_, ok := botTypePayloadShapes[t]
	return ok
}

func (t BotType) PayloadShape() PayloadShape {
	if shape, ok := botTypePayloadShapes[t]; ok {
		return shape
	}
	return PayloadShapeMessages
}
