package protocol

import "errors"

// ErrUnknownCommand is wrapped into the error Decode returns for a tag not
// present in serverFactories. Per §4.1 this is non-fatal: the caller logs
// and skips the frame.
var ErrUnknownCommand = errors.New("unknown command")

// serverFactories maps each known server tag to a constructor for its
// ServerCommand variant. json.Unmarshal needs a pointer, so every factory
// returns one; the pointer type still satisfies ServerCommand because the
// tag methods are declared on value receivers.
var serverFactories = map[Tag]func() ServerCommand{
	TagGlobalOps:         func() ServerCommand { return &EvtGlobalOps{} },
	TagGlobalOpped:       func() ServerCommand { return &EvtGlobalOpped{} },
	TagBroadcast:         func() ServerCommand { return &EvtBroadcast{} },
	TagChannelDescribed:  func() ServerCommand { return &EvtChannelDescription{} },
	TagGlobalChannels:    func() ServerCommand { return &EvtGlobalChannels{} },
	TagInvited:           func() ServerCommand { return &EvtInvited{} },
	TagChannelBanned:     func() ServerCommand { return &EvtChannelBanned{} },
	TagChannelKicked:     func() ServerCommand { return &EvtChannelKicked{} },
	TagChannelOpped:      func() ServerCommand { return &EvtChannelOpped{} },
	TagChannelOpList:     func() ServerCommand { return &EvtChannelOpList{} },
	TagConnected:         func() ServerCommand { return &EvtConnected{} },
	TagChannelDeopped:    func() ServerCommand { return &EvtChannelDeopped{} },
	TagOwnerSet:          func() ServerCommand { return &EvtOwnerSet{} },
	TagChannelTimedOut:   func() ServerCommand { return &EvtChannelTimedOut{} },
	TagGlobalDeopped:     func() ServerCommand { return &EvtGlobalDeopped{} },
	TagError:             func() ServerCommand { return &EvtError{} },
	TagSearchResult:      func() ServerCommand { return &EvtSearchResult{} },
	TagOffline:           func() ServerCommand { return &EvtOffline{} },
	TagFriends:           func() ServerCommand { return &EvtFriends{} },
	TagHello:             func() ServerCommand { return &EvtHello{} },
	TagChannelData:       func() ServerCommand { return &EvtChannelData{} },
	TagIdentifySuccess:   func() ServerCommand { return &EvtIdentifySuccess{} },
	TagJoinedChannel:     func() ServerCommand { return &EvtJoinedChannel{} },
	TagKinkData:          func() ServerCommand { return &EvtKinkData{} },
	TagLeftChannel:       func() ServerCommand { return &EvtLeftChannel{} },
	TagListOnline:        func() ServerCommand { return &EvtListOnline{} },
	TagNewConnection:     func() ServerCommand { return &EvtNewConnection{} },
	TagIgnore:            func() ServerCommand { return &EvtIgnore{} },
	TagChannelList:       func() ServerCommand { return &EvtChannelList{} },
	TagPing:              func() ServerCommand { return &EvtPing{} },
	TagProfileData:       func() ServerCommand { return &EvtProfileData{} },
	TagPrivateReceived:   func() ServerCommand { return &EvtPrivateMessage{} },
	TagMessageReceived:   func() ServerCommand { return &EvtMessage{} },
	TagAdPosted:          func() ServerCommand { return &EvtAd{} },
	TagRollResult:        func() ServerCommand { return &EvtRoll{} },
	TagChannelModeSet:    func() ServerCommand { return &EvtChannelMode{} },
	TagBridgeEvent:       func() ServerCommand { return &EvtBridgeEvent{} },
	TagReportFiled:       func() ServerCommand { return &EvtReport{} },
	TagStatusChanged:     func() ServerCommand { return &EvtStatus{} },
	TagSystemMessage:     func() ServerCommand { return &EvtSystemMessage{} },
	TagTypingChanged:     func() ServerCommand { return &EvtTyping{} },
	TagUptime2:           func() ServerCommand { return &EvtUptime{} },
	TagVariable:          func() ServerCommand { return &EvtVariable{} },
}
