//go:build linux
// +build linux

package wifi

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/tomiamao/wlansme/mlme"
)

// ethTypePAE is the ethertype of EAPOL frames.
const ethTypePAE = 0x888e

// receiveTimeout bounds each read of the notification connection so that
// cancellation is noticed.
const receiveTimeout = 10 * time.Second

// A client is the Linux implementation of the driver. Requests are executed
// on c; notifications are read from ev, which also owns the control port of
// the association.
type client struct {
	c             *genetlink.Conn
	ev            *genetlink.Conn
	familyID      uint16
	familyVersion uint8
	groups        []genetlink.MulticastGroup

	ifi    *Interface
	addr   mlme.MacAddr
	logger *zap.Logger

	mu          sync.Mutex
	scanTxn     uint64
	joined      *mlme.BSSDescription
	associating bool
	peer        *mlme.MacAddr
}

// newClient dials the generic netlink connections, resolves ifname and
// subscribes to the scan and mlme multicast groups.
func newClient(ifname string, logger *zap.Logger) (*client, error) {
	c, err := dial()
	if err != nil {
		return nil, err
	}
	ev, err := dial()
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	cl, err := initClient(c, ev, ifname, logger)
	if err != nil {
		return nil, err
	}

	for _, grp := range []string{unix.NL80211_MULTICAST_GROUP_SCAN, unix.NL80211_MULTICAST_GROUP_MLME} {
		if err := cl.joinMulticastGroup(grp); err != nil {
			_ = cl.Close()
			return nil, err
		}
	}
	return cl, nil
}

func dial() (*genetlink.Conn, error) {
	c, err := genetlink.Dial(nil)
	if err != nil {
		return nil, err
	}

	// Make a best effort to apply the strict options set to provide better
	// errors and validation. We don't apply Strict in the constructor because
	// it is not supported by older kernels.
	for _, o := range []netlink.ConnOption{
		netlink.ExtendedAcknowledge,
		netlink.GetStrictCheck,
		netlink.NoENOBUFS,
	} {
		_ = c.SetOption(o, true)
	}
	return c, nil
}

func initClient(c, ev *genetlink.Conn, ifname string, logger *zap.Logger) (*client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	family, err := c.GetFamily(unix.NL80211_GENL_NAME)
	if err != nil {
		// Ensure the genl sockets are closed on error to avoid leaking file
		// descriptors.
		_ = c.Close()
		_ = ev.Close()
		return nil, err
	}

	cl := &client{
		c:             c,
		ev:            ev,
		familyID:      family.ID,
		familyVersion: family.Version,
		groups:        family.Groups,
		logger:        logger,
	}
	if err := cl.init(ifname); err != nil {
		_ = cl.Close()
		return nil, err
	}
	return cl, nil
}

func (c *client) init(ifname string) error {
	ifis, err := c.Interfaces()
	if err != nil {
		return err
	}
	for _, ifi := range ifis {
		if ifi.Name == ifname {
			c.ifi = ifi
			break
		}
	}
	if c.ifi == nil {
		return fmt.Errorf("%w: %s", ErrInterfaceNotFound, ifname)
	}
	if c.ifi.Type != InterfaceTypeStation {
		return fmt.Errorf("%w: %s", ErrNotStation, ifname)
	}
	addr, ok := mlme.ParseMacAddr(c.ifi.HardwareAddr)
	if !ok {
		return fmt.Errorf("invalid hardware address %q", c.ifi.HardwareAddr)
	}
	c.addr = addr

	ok, err = c.CheckExtFeature(unix.NL80211_EXT_FEATURE_CONTROL_PORT_OVER_NL80211)
	if err != nil {
		return err
	}
	if !ok {
		return ErrControlPortNotFound
	}
	return nil
}

// Close closes the client's generic netlink connections.
func (c *client) Close() error {
	return errors.Join(c.c.Close(), c.ev.Close())
}

// get performs a request/response interaction with nl80211.
func (c *client) get(
	cmd uint8,
	flags netlink.HeaderFlags,
	ifi *Interface,
	// May be nil; used to apply optional parameters.
	params func(ae *netlink.AttributeEncoder),
) ([]genetlink.Message, error) {
	ae := netlink.NewAttributeEncoder()
	ifi.encode(ae)
	if params != nil {
		params(ae)
	}

	return c.execute(cmd, flags, ae)
}

// execute executes the specified command with additional header flags and input
// netlink request attributes. The netlink.Request header flag is automatically
// set.
func (c *client) execute(
	cmd uint8,
	flags netlink.HeaderFlags,
	ae *netlink.AttributeEncoder,
) ([]genetlink.Message, error) {
	msg, err := c.message(cmd, ae)
	if err != nil {
		return nil, err
	}

	return c.c.Execute(
		msg,
		// Always pass the genetlink family ID and request flag.
		c.familyID,
		netlink.Request|flags,
	)
}

func (c *client) message(cmd uint8, ae *netlink.AttributeEncoder) (genetlink.Message, error) {
	b, err := ae.Encode()
	if err != nil {
		return genetlink.Message{}, err
	}
	return genetlink.Message{
		Header: genetlink.Header{
			Command: cmd,
			Version: c.familyVersion,
		},
		Data: b,
	}, nil
}

// Interfaces requests that nl80211 return a list of all WiFi interfaces present
// on this system.
func (c *client) Interfaces() ([]*Interface, error) {
	msgs, err := c.get(
		unix.NL80211_CMD_GET_INTERFACE,
		netlink.Dump,
		nil,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return parseInterfaces(msgs)
}

// CheckExtFeature reports whether the interface's PHY supports an extended
// feature.
func (c *client) CheckExtFeature(feature uint) (bool, error) {
	msgs, err := c.get(
		unix.NL80211_CMD_GET_WIPHY,
		netlink.Dump,
		c.ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Flag(unix.NL80211_ATTR_SPLIT_WIPHY_DUMP, true)
		},
	)
	if err != nil {
		return false, err
	}

	var features []byte
found:
	for i := range msgs {
		attrs, err := unmarshalAttributes(msgs[i].Data)
		if err != nil {
			return false, err
		}
		for _, a := range attrs {
			if a.Type == unix.NL80211_ATTR_EXT_FEATURES {
				features = a.Data
				break found
			}
		}
	}

	if feature/8 >= uint(len(features)) {
		return false, nil
	}

	return (features[feature/8]&(1<<(feature%8)) != 0), nil
}

// Channels returns the enabled channels of the interface's PHY in ascending
// order.
func (c *client) Channels() ([]uint8, error) {
	msgs, err := c.get(
		unix.NL80211_CMD_GET_WIPHY,
		netlink.Dump,
		c.ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Flag(unix.NL80211_ATTR_SPLIT_WIPHY_DUMP, true)
		},
	)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint8]bool)
	for _, m := range msgs {
		attrs, err := unmarshalAttributes(m.Data)
		if err != nil {
			return nil, err
		}
		for _, a := range attrs {
			if a.Type != unix.NL80211_ATTR_WIPHY_BANDS {
				continue
			}
			if err := parseBands(a.Data, seen); err != nil {
				return nil, err
			}
		}
	}
	if len(seen) == 0 {
		return nil, ErrNoChannels
	}

	channels := make([]uint8, 0, len(seen))
	for ch := range seen {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })
	return channels, nil
}

// parseBands collects the enabled channels of nested band attributes.
func parseBands(b []byte, seen map[uint8]bool) error {
	bands, err := unmarshalAttributes(b)
	if err != nil {
		return err
	}
	for _, band := range bands {
		battrs, err := unmarshalAttributes(band.Data)
		if err != nil {
			return err
		}
		for _, ba := range battrs {
			if ba.Type != unix.NL80211_BAND_ATTR_FREQS {
				continue
			}
			freqs, err := unmarshalAttributes(ba.Data)
			if err != nil {
				return err
			}
			for _, f := range freqs {
				fattrs, err := unmarshalAttributes(f.Data)
				if err != nil {
					return err
				}
				if attrsContain(fattrs, unix.NL80211_FREQUENCY_ATTR_DISABLED) {
					continue
				}
				for _, fa := range fattrs {
					if fa.Type == unix.NL80211_FREQUENCY_ATTR_FREQ {
						if ch := FreqToChannel(int(nlenc.Uint32(fa.Data))); ch > 0 && ch <= 255 {
							seen[uint8(ch)] = true
						}
					}
				}
			}
		}
	}
	return nil
}

func (c *client) joinMulticastGroup(grp string) error {
	for _, group := range c.groups {
		if group.Name == grp {
			return c.ev.JoinGroup(group.ID)
		}
	}
	return fmt.Errorf("multicast group %q not found", grp)
}

// Do executes req and returns the events it completes synchronously.
// Failures that the SME cannot observe otherwise are reported as events;
// the remaining ones are logged.
func (c *client) Do(req mlme.Request) []mlme.Event {
	switch req := req.(type) {
	case *mlme.ScanRequest:
		return c.scan(req)
	case *mlme.JoinRequest:
		return c.join(req)
	case *mlme.AuthenticateRequest:
		return c.authenticate(req)
	case *mlme.AssociateRequest:
		return c.associate(req)
	case *mlme.DeauthenticateRequest:
		c.deauthenticate(req)
	case *mlme.SetKeysRequest:
		c.setKeys(req)
	case *mlme.EapolRequest:
		c.sendEapol(req)
	case *mlme.SetControlledPortRequest:
		c.setControlledPort(req)
	default:
		c.logger.Error("unsupported request", zap.String("request", fmt.Sprintf("%T", req)))
	}
	return nil
}

func (c *client) scan(req *mlme.ScanRequest) []mlme.Event {
	_, err := c.get(
		unix.NL80211_CMD_TRIGGER_SCAN,
		netlink.Acknowledge,
		c.ifi,
		func(ae *netlink.AttributeEncoder) {
			if req.ScanType == mlme.ScanTypeActive {
				ae.Nested(unix.NL80211_ATTR_SCAN_SSIDS, func(nae *netlink.AttributeEncoder) error {
					// An empty SSID is the wildcard.
					nae.Bytes(1, []byte(req.SSID))
					return nil
				})
			}
			if len(req.ChannelList) > 0 {
				ae.Nested(unix.NL80211_ATTR_SCAN_FREQUENCIES, func(nae *netlink.AttributeEncoder) error {
					for i, ch := range req.ChannelList {
						nae.Uint32(uint16(i+1), uint32(ChannelToFreq(int(ch))))
					}
					return nil
				})
			}
		},
	)
	if err != nil {
		c.logger.Error("failed to trigger scan", zap.Uint64("txn_id", req.TxnID), zap.Error(err))
		code := mlme.ScanInternalError
		if errors.Is(err, unix.EOPNOTSUPP) {
			code = mlme.ScanNotSupported
		}
		return []mlme.Event{&mlme.ScanEnd{TxnID: req.TxnID, Code: code}}
	}

	c.mu.Lock()
	c.scanTxn = req.TxnID
	c.mu.Unlock()
	return nil
}

// scanResults dumps the kernel's BSS table.
func (c *client) scanResults() ([]mlme.BSSDescription, error) {
	msgs, err := c.get(
		unix.NL80211_CMD_GET_SCAN,
		netlink.Dump,
		c.ifi,
		nil,
	)
	if err != nil {
		return nil, err
	}
	return parseScanResults(msgs, c.logger)
}

func (c *client) join(req *mlme.JoinRequest) []mlme.Event {
	c.mu.Lock()
	c.joined = req.SelectedBSS.Clone()
	c.mu.Unlock()
	return []mlme.Event{&mlme.JoinConfirm{Code: mlme.JoinSuccess}}
}

func (c *client) joinedBSS() *mlme.BSSDescription {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.joined
}

func (c *client) authenticate(req *mlme.AuthenticateRequest) []mlme.Event {
	b := c.joinedBSS()
	fail := []mlme.Event{&mlme.AuthenticateConfirm{
		PeerStaAddress: req.PeerStaAddress,
		AuthType:       req.AuthType,
		Code:           mlme.AuthenticateRefused,
	}}
	if b == nil || b.BSSID != req.PeerStaAddress {
		c.logger.Error("cannot authenticate", zap.Stringer("bssid", req.PeerStaAddress), zap.Error(ErrNotJoined))
		return fail
	}

	_, err := c.get(
		unix.NL80211_CMD_AUTHENTICATE,
		netlink.Acknowledge,
		c.ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Uint32(unix.NL80211_ATTR_WIPHY_FREQ, uint32(ChannelToFreq(int(b.Channel.Primary))))
			ae.Bytes(unix.NL80211_ATTR_MAC, req.PeerStaAddress[:])
			ae.Bytes(unix.NL80211_ATTR_SSID, []byte(b.SSID))
			ae.Uint32(unix.NL80211_ATTR_AUTH_TYPE, unix.NL80211_AUTHTYPE_OPEN_SYSTEM)
		},
	)
	if err != nil {
		c.logger.Error("authenticate request failed", zap.Stringer("bssid", req.PeerStaAddress), zap.Error(err))
		return fail
	}
	return nil
}

// associate is sent on the notification connection so that EAPOL frames of
// the association are delivered there. Errors arrive asynchronously.
func (c *client) associate(req *mlme.AssociateRequest) []mlme.Event {
	fail := []mlme.Event{&mlme.AssociateConfirm{Code: mlme.AssociateRefusedReasonUnspecified}}
	b := c.joinedBSS()
	if b == nil || b.BSSID != req.PeerStaAddress {
		c.logger.Error("cannot associate", zap.Stringer("bssid", req.PeerStaAddress), zap.Error(ErrNotJoined))
		return fail
	}

	ae := netlink.NewAttributeEncoder()
	c.ifi.encode(ae)
	ae.Uint32(unix.NL80211_ATTR_WIPHY_FREQ, uint32(ChannelToFreq(int(b.Channel.Primary))))
	ae.Bytes(unix.NL80211_ATTR_MAC, req.PeerStaAddress[:])
	ae.Bytes(unix.NL80211_ATTR_SSID, []byte(b.SSID))
	if req.RSNE != nil {
		if err := encodeRSN(ae, req.RSNE); err != nil {
			c.logger.Error("cannot associate", zap.Stringer("bssid", req.PeerStaAddress), zap.Error(err))
			return fail
		}
	}
	msg, err := c.message(unix.NL80211_CMD_ASSOCIATE, ae)
	if err == nil {
		c.mu.Lock()
		c.associating = true
		c.mu.Unlock()
		_, err = c.ev.Send(msg, c.familyID, netlink.Request)
	}
	if err != nil {
		c.mu.Lock()
		c.associating = false
		c.mu.Unlock()
		c.logger.Error("associate request failed", zap.Stringer("bssid", req.PeerStaAddress), zap.Error(err))
		return fail
	}
	return nil
}

func (c *client) deauthenticate(req *mlme.DeauthenticateRequest) {
	c.mu.Lock()
	c.peer = nil
	c.joined = nil
	c.associating = false
	c.mu.Unlock()

	_, err := c.get(
		unix.NL80211_CMD_DEAUTHENTICATE,
		netlink.Acknowledge,
		c.ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Bytes(unix.NL80211_ATTR_MAC, req.PeerStaAddress[:])
			ae.Uint16(unix.NL80211_ATTR_REASON_CODE, uint16(req.ReasonCode))
		},
	)
	if err != nil {
		c.logger.Warn("deauthenticate request failed", zap.Stringer("bssid", req.PeerStaAddress), zap.Error(err))
	}
}

func (c *client) setKeys(req *mlme.SetKeysRequest) {
	for _, k := range req.Keys {
		_, err := c.get(
			unix.NL80211_CMD_NEW_KEY,
			netlink.Acknowledge,
			c.ifi,
			func(ae *netlink.AttributeEncoder) {
				encodeKey(ae, &k)
			},
		)
		if err != nil {
			c.logger.Error("failed to install key",
				zap.Uint16("key_id", k.KeyID),
				zap.Uint8("key_type", uint8(k.KeyType)),
				zap.Error(err),
			)
		}
	}
}

func encodeKey(ae *netlink.AttributeEncoder, k *mlme.SetKeyDescriptor) {
	ae.Bytes(unix.NL80211_ATTR_KEY_DATA, k.Key)
	ae.Uint32(unix.NL80211_ATTR_KEY_CIPHER, suiteSelector(k.CipherSuiteOUI, k.CipherSuiteType))
	ae.Uint8(unix.NL80211_ATTR_KEY_IDX, uint8(k.KeyID))
	switch k.KeyType {
	case mlme.KeyTypePairwise:
		ae.Bytes(unix.NL80211_ATTR_MAC, k.Address[:])
		ae.Uint32(unix.NL80211_ATTR_KEY_TYPE, unix.NL80211_KEYTYPE_PAIRWISE)
	default:
		ae.Uint32(unix.NL80211_ATTR_KEY_TYPE, unix.NL80211_KEYTYPE_GROUP)
		// The RSC is transmitted little endian; the kernel expects 6 octets.
		ae.Bytes(unix.NL80211_ATTR_KEY_SEQ, k.RSC[:6])
	}
}

func suiteSelector(oui [3]byte, typ uint8) uint32 {
	return uint32(oui[0])<<24 | uint32(oui[1])<<16 | uint32(oui[2])<<8 | uint32(typ)
}

func (c *client) sendEapol(req *mlme.EapolRequest) {
	_, err := c.get(
		unix.NL80211_CMD_CONTROL_PORT_FRAME,
		netlink.Acknowledge,
		c.ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Bytes(unix.NL80211_ATTR_FRAME, req.Data)
			ae.Bytes(unix.NL80211_ATTR_MAC, req.DstAddr[:])
			ae.Uint16(unix.NL80211_ATTR_CONTROL_PORT_ETHERTYPE, ethTypePAE)
		},
	)
	if err != nil {
		c.logger.Error("failed to send EAPOL frame", zap.Stringer("dst", req.DstAddr), zap.Error(err))
	}
}

func (c *client) setControlledPort(req *mlme.SetControlledPortRequest) {
	var set uint32
	if req.State == mlme.ControlledPortOpen {
		set = 1 << unix.NL80211_STA_FLAG_AUTHORIZED
	}
	_, err := c.get(
		unix.NL80211_CMD_SET_STATION,
		netlink.Acknowledge,
		c.ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Bytes(unix.NL80211_ATTR_MAC, req.PeerStaAddress[:])
			ae.Bytes(unix.NL80211_ATTR_STA_FLAGS2, staFlagUpdate(1<<unix.NL80211_STA_FLAG_AUTHORIZED, set))
		},
	)
	if err != nil {
		c.logger.Error("failed to set controlled port", zap.Stringer("peer", req.PeerStaAddress), zap.Error(err))
	}
}

// PollSignal reads the signal strength of the associated peer.
func (c *client) PollSignal() []mlme.Event {
	c.mu.Lock()
	peer := c.peer
	c.mu.Unlock()
	if peer == nil {
		return nil
	}

	msgs, err := c.get(
		unix.NL80211_CMD_GET_STATION,
		0,
		c.ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Bytes(unix.NL80211_ATTR_MAC, peer[:])
		},
	)
	if err != nil {
		c.logger.Warn("failed to poll station", zap.Stringer("peer", *peer), zap.Error(err))
		return nil
	}
	for _, m := range msgs {
		rssi, ok, err := parseStationSignal(m.Data)
		if err != nil {
			c.logger.Warn("invalid station info", zap.Error(err))
			continue
		}
		if ok {
			return []mlme.Event{&mlme.SignalReport{RSSIDBm: rssi}}
		}
	}
	return nil
}

// Events starts the notification pump. The channel is closed when ctx is
// done.
func (c *client) Events(ctx context.Context) <-chan mlme.Event {
	out := make(chan mlme.Event)

	go func() {
		defer close(out)
		for {
			if ctx.Err() != nil {
				return
			}
			_ = c.ev.SetReadDeadline(time.Now().Add(receiveTimeout))
			msgs, _, err := c.ev.Receive()
			var events []mlme.Event
			if err != nil {
				events = c.onReceiveError(err)
			}
			for _, m := range msgs {
				events = append(events, c.handle(m)...)
			}
			for _, e := range events {
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

func (c *client) onReceiveError(err error) []mlme.Event {
	var opErr *netlink.OpError
	if errors.As(err, &opErr) && opErr.Timeout() {
		return nil
	}

	c.mu.Lock()
	associating := c.associating
	c.associating = false
	c.mu.Unlock()
	if associating {
		// The kernel rejected the association request.
		c.logger.Error("associate request failed", zap.Error(err))
		return []mlme.Event{&mlme.AssociateConfirm{Code: mlme.AssociateRefusedReasonUnspecified}}
	}
	c.logger.Warn("netlink notification receive failed", zap.Error(err))
	return nil
}

// handle translates one nl80211 notification into events.
func (c *client) handle(m genetlink.Message) []mlme.Event {
	if m.Header.Version != c.familyVersion {
		return nil
	}
	attrs, err := unmarshalAttributes(m.Data)
	if err != nil {
		c.logger.Warn("invalid nl80211 notification", zap.Uint8("cmd", m.Header.Command), zap.Error(err))
		return nil
	}
	n := parseNotification(attrs)
	if n.ifindex != c.ifi.Index {
		return nil
	}

	switch m.Header.Command {
	case unix.NL80211_CMD_NEW_SCAN_RESULTS:
		return c.onScanDone(mlme.ScanSuccess)
	case unix.NL80211_CMD_SCAN_ABORTED:
		return c.onScanDone(mlme.ScanCanceled)
	case unix.NL80211_CMD_AUTHENTICATE:
		return c.onAuthenticate(n)
	case unix.NL80211_CMD_ASSOCIATE:
		return c.onAssociate(n)
	case unix.NL80211_CMD_DEAUTHENTICATE, unix.NL80211_CMD_DISASSOCIATE:
		return c.onDeauthenticate(m.Header.Command, n)
	case unix.NL80211_CMD_CONTROL_PORT_FRAME:
		if n.ethType != ethTypePAE {
			return nil
		}
		return []mlme.Event{&mlme.EapolIndication{SrcAddr: n.mac, DstAddr: c.addr, Data: n.frame}}
	}
	return nil
}

func (c *client) onScanDone(code mlme.ScanResultCode) []mlme.Event {
	c.mu.Lock()
	txn := c.scanTxn
	c.scanTxn = 0
	c.mu.Unlock()
	if txn == 0 {
		// Somebody else's scan.
		return nil
	}
	if code != mlme.ScanSuccess {
		return []mlme.Event{&mlme.ScanEnd{TxnID: txn, Code: code}}
	}

	bsses, err := c.scanResults()
	if err != nil {
		c.logger.Error("failed to fetch scan results", zap.Uint64("txn_id", txn), zap.Error(err))
		return []mlme.Event{&mlme.ScanEnd{TxnID: txn, Code: mlme.ScanInternalError}}
	}
	events := make([]mlme.Event, 0, len(bsses)+1)
	for _, b := range bsses {
		events = append(events, &mlme.ScanResult{TxnID: txn, BSS: b})
	}
	return append(events, &mlme.ScanEnd{TxnID: txn, Code: mlme.ScanSuccess})
}

func (c *client) onAuthenticate(n notification) []mlme.Event {
	if n.timedOut {
		return []mlme.Event{&mlme.AuthenticateConfirm{
			PeerStaAddress: n.mac,
			AuthType:       mlme.AuthTypeOpenSystem,
			Code:           mlme.AuthenticateFailureTimeout,
		}}
	}
	f, err := parseAuthFrame(n.frame)
	if err != nil {
		c.logger.Warn("invalid authentication frame", zap.Error(err))
		return nil
	}
	return []mlme.Event{&mlme.AuthenticateConfirm{
		PeerStaAddress: f.SA,
		AuthType:       mlme.AuthType(f.Algorithm),
		Code:           authResultCode(f.Status),
	}}
}

func (c *client) onAssociate(n notification) []mlme.Event {
	c.mu.Lock()
	c.associating = false
	c.mu.Unlock()

	if n.timedOut {
		return []mlme.Event{&mlme.AssociateConfirm{Code: mlme.AssociateRefusedReasonUnspecified}}
	}
	f, err := parseAssocResp(n.frame)
	if err != nil {
		c.logger.Warn("invalid association response", zap.Error(err))
		return nil
	}
	code := assocResultCode(f.Status)
	if code == mlme.AssociateSuccess {
		peer := f.SA
		c.mu.Lock()
		c.peer = &peer
		c.mu.Unlock()
	}
	return []mlme.Event{&mlme.AssociateConfirm{Code: code, AssociationID: f.AID}}
}

func (c *client) onDeauthenticate(cmd uint8, n notification) []mlme.Event {
	f, err := parseDeauthFrame(n.frame)
	if err != nil {
		c.logger.Warn("invalid deauthentication frame", zap.Error(err))
		return nil
	}
	// Frames we sent ourselves are reported too.
	if f.SA == c.addr {
		return nil
	}

	c.mu.Lock()
	c.peer = nil
	c.mu.Unlock()

	reason := mlme.ReasonCode(f.Reason)
	if cmd == unix.NL80211_CMD_DISASSOCIATE {
		return []mlme.Event{&mlme.DisassociateIndication{PeerStaAddress: f.SA, ReasonCode: reason}}
	}
	c.mu.Lock()
	c.joined = nil
	c.mu.Unlock()
	return []mlme.Event{&mlme.DeauthenticateIndication{PeerStaAddress: f.SA, ReasonCode: reason}}
}

// A notification holds the attributes of an nl80211 notification the
// driver consumes.
type notification struct {
	ifindex  int
	mac      mlme.MacAddr
	frame    []byte
	timedOut bool
	ethType  uint16
}

func parseNotification(attrs []netlink.Attribute) notification {
	var n notification
	for _, a := range attrs {
		switch a.Type {
		case unix.NL80211_ATTR_IFINDEX:
			n.ifindex = int(nlenc.Uint32(a.Data))
		case unix.NL80211_ATTR_MAC:
			n.mac, _ = mlme.ParseMacAddr(net.HardwareAddr(a.Data))
		case unix.NL80211_ATTR_FRAME:
			n.frame = a.Data
		case unix.NL80211_ATTR_TIMED_OUT:
			n.timedOut = true
		case unix.NL80211_ATTR_CONTROL_PORT_ETHERTYPE:
			n.ethType = nlenc.Uint16(a.Data)
		}
	}
	return n
}

// encodeRSN adds the RSNE and the suites it selects to an association
// request.
func encodeRSN(ae *netlink.AttributeEncoder, rsne []byte) error {
	if len(rsne) < 2 || int(rsne[1])+2 != len(rsne) {
		return errInvalidIE
	}
	ae.Bytes(unix.NL80211_ATTR_IE, rsne)
	ae.Uint32(unix.NL80211_ATTR_WPA_VERSIONS, unix.NL80211_WPA_VERSION_2)
	ae.Flag(unix.NL80211_ATTR_CONTROL_PORT, true)
	ae.Flag(unix.NL80211_ATTR_CONTROL_PORT_OVER_NL80211, true)
	ae.Uint16(unix.NL80211_ATTR_CONTROL_PORT_ETHERTYPE, ethTypePAE)

	// Only the first pairwise and AKM suite are used. Selectors are OUI
	// first.
	body := rsne[2:]
	if len(body) >= 6 {
		ae.Uint32(unix.NL80211_ATTR_CIPHER_SUITE_GROUP, binary.BigEndian.Uint32(body[2:6]))
	}
	if len(body) >= 12 {
		ae.Uint32(unix.NL80211_ATTR_CIPHER_SUITES_PAIRWISE, binary.BigEndian.Uint32(body[8:12]))
	}
	if len(body) >= 18 {
		ae.Uint32(unix.NL80211_ATTR_AKM_SUITES, binary.BigEndian.Uint32(body[14:18]))
	}
	return nil
}

// parseInterfaces parses zero or more Interfaces from nl80211 interface
// messages.
func parseInterfaces(msgs []genetlink.Message) ([]*Interface, error) {
	ifis := make([]*Interface, 0, len(msgs))
	for _, m := range msgs {
		attrs, err := unmarshalAttributes(m.Data)
		if err != nil {
			return nil, err
		}

		var ifi Interface
		if err := (&ifi).parseAttributes(attrs); err != nil {
			return nil, err
		}

		ifis = append(ifis, &ifi)
	}

	return ifis, nil
}

// encode provides an encoding function for ifi's attributes. If ifi is nil,
// encode is a no-op.
func (ifi *Interface) encode(ae *netlink.AttributeEncoder) {
	if ifi == nil {
		return
	}

	// Mandatory.
	ae.Uint32(unix.NL80211_ATTR_IFINDEX, uint32(ifi.Index))
}

// parseAttributes parses netlink attributes into an Interface's fields.
func (ifi *Interface) parseAttributes(attrs []netlink.Attribute) error {
	for _, a := range attrs {
		switch a.Type {
		case unix.NL80211_ATTR_IFINDEX:
			ifi.Index = int(nlenc.Uint32(a.Data))
		case unix.NL80211_ATTR_IFNAME:
			ifi.Name = nlenc.String(a.Data)
		case unix.NL80211_ATTR_MAC:
			ifi.HardwareAddr = net.HardwareAddr(a.Data)
		case unix.NL80211_ATTR_WIPHY:
			ifi.PHY = int(nlenc.Uint32(a.Data))
		case unix.NL80211_ATTR_IFTYPE:
			// NOTE: InterfaceType copies the ordering of nl80211's interface type
			// constants.  This may not be the case on other operating systems.
			ifi.Type = InterfaceType(nlenc.Uint32(a.Data))
		case unix.NL80211_ATTR_WDEV:
			ifi.Device = int(nlenc.Uint64(a.Data))
		case unix.NL80211_ATTR_WIPHY_FREQ:
			ifi.Frequency = int(nlenc.Uint32(a.Data))
		}
	}

	return nil
}

// parseScanResults parses the BSS table of a GET_SCAN dump. Entries that
// cannot be parsed are logged and skipped.
func parseScanResults(msgs []genetlink.Message, logger *zap.Logger) ([]mlme.BSSDescription, error) {
	bsses := make([]mlme.BSSDescription, 0, len(msgs))
	for _, m := range msgs {
		attrs, err := unmarshalAttributes(m.Data)
		if err != nil {
			return nil, err
		}

		for _, a := range attrs {
			if a.Type != unix.NL80211_ATTR_BSS {
				continue
			}

			nattrs, err := unmarshalAttributes(a.Data)
			if err != nil {
				return nil, err
			}

			var d mlme.BSSDescription
			if err := parseBSSAttributes(&d, nattrs); err != nil {
				logger.Warn("skipping malformed BSS", zap.Stringer("bssid", d.BSSID), zap.Error(err))
				continue
			}
			bsses = append(bsses, d)
		}
	}
	return bsses, nil
}

// parseBSSAttributes parses netlink attributes into a BSS description.
func parseBSSAttributes(d *mlme.BSSDescription, attrs []netlink.Attribute) error {
	var ies []ie
	for _, a := range attrs {
		switch a.Type {
		case unix.NL80211_BSS_BSSID:
			d.BSSID, _ = mlme.ParseMacAddr(net.HardwareAddr(a.Data))
		case unix.NL80211_BSS_FREQUENCY:
			d.Channel.Primary = uint8(FreqToChannel(int(nlenc.Uint32(a.Data))))
		case unix.NL80211_BSS_BEACON_INTERVAL:
			// Raw value is in "Time Units (TU)".
			d.BeaconPeriod = nlenc.Uint16(a.Data)
		case unix.NL80211_BSS_CAPABILITY:
			d.Capability = nlenc.Uint16(a.Data)
		case unix.NL80211_BSS_SIGNAL_MBM:
			d.RSSIDBm = rssiFromMBM(nlenc.Int32(a.Data))
		case unix.NL80211_BSS_INFORMATION_ELEMENTS:
			var err error
			if ies, err = parseIEs(a.Data); err != nil {
				return err
			}
		}
	}
	applyIEs(d, ies)
	return nil
}

// parseStationSignal extracts the signal strength from a GET_STATION reply.
func parseStationSignal(b []byte) (int8, bool, error) {
	attrs, err := unmarshalAttributes(b)
	if err != nil {
		return 0, false, err
	}
	for _, a := range attrs {
		if a.Type != unix.NL80211_ATTR_STA_INFO {
			continue
		}
		nattrs, err := unmarshalAttributes(a.Data)
		if err != nil {
			return 0, false, err
		}
		for _, na := range nattrs {
			//  * @NL80211_STA_INFO_SIGNAL: signal strength of last received PPDU (u8, dBm)
			if na.Type == unix.NL80211_STA_INFO_SIGNAL && len(na.Data) > 0 {
				return int8(na.Data[0]), true, nil
			}
		}
	}
	return 0, false, nil
}

// unmarshalAttributes is netlink.UnmarshalAttributes with the nested and
// byte order flags cleared from attribute types.
func unmarshalAttributes(b []byte) ([]netlink.Attribute, error) {
	attrs, err := netlink.UnmarshalAttributes(b)
	if err != nil {
		return nil, err
	}
	for i := range attrs {
		attrs[i].Type &^= netlink.Nested | netlink.NetByteOrder
	}
	return attrs, nil
}

// attrsContain checks if a slice of netlink attributes contains an attribute
// with the specified type.
func attrsContain(attrs []netlink.Attribute, typ uint16) bool {
	for _, a := range attrs {
		if a.Type == typ {
			return true
		}
	}

	return false
}
