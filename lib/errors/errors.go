package errors

var (
	NodeStopped               = NewError(100, "node stopped")
	NodeNotReady              = NewError(101, "node is not ready")
	NodeAlreadyRegistered     = NewError(102, "node is already registered")
	UnknownNode               = NewError(103, "unknown node")
	PacketFromUnknownNode     = NewError(104, "packet from unknown node")
	InvalidPacketFormat       = NewError(105, "invalid packet format")
	InvalidPacketType         = NewError(106, "invalid packet type")
	InvalidPacketContent      = NewError(107, "invalid packet content")
	InvalidPacketRound        = NewError(108, "packet iteration must be greater than 0")
	UnknownMessageType        = NewError(109, "unknown message type")
	InvalidFaultTolerance     = NewError(110, "invalid fault tolerance")
	InvalidInitialValue       = NewError(111, "initial value must be 0 or 1")
	InvalidStorageConfig      = NewError(112, "invalid storage config")
	StorageRecordDoesNotExist = NewError(113, "record does not exist")
	StorageCoreError          = NewError(114, "storage error")
	NotMatchHTTPRouter        = NewError(115, "http router is not found")
	InvalidSimulationConfig   = NewError(116, "invalid simulation config")
	InvalidValidatorEndpoint  = NewError(117, "invalid validator endpoint")
	DuplicatedValidator       = NewError(118, "duplicated validator")
	InvalidQueryString        = NewError(119, "found invalid query string")
)
