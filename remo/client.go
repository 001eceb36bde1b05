// Package remo implements the remote API collaborator on top of the Nature
// Remo cloud API.
package remo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cormoran/natureremo"
	"go.uber.org/zap"

	remoaircon "github.com/eivy/remo-aircon"
)

type applianceService interface {
	GetAll(ctx context.Context) ([]*natureremo.Appliance, error)
}

type deviceService interface {
	GetAll(ctx context.Context) ([]*natureremo.Device, error)
}

// Client talks to the Nature Remo cloud API. It implements remoaircon.API.
type Client struct {
	appliances applianceService
	devices    deviceService
	poster     *formPoster
	allow      map[string]bool
	logger     *zap.Logger
}

var _ remoaircon.API = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithAllowList restricts discovery to the given appliance IDs.
func WithAllowList(ids []string) Option {
	return func(c *Client) {
		if len(ids) == 0 {
			return
		}
		c.allow = make(map[string]bool, len(ids))
		for _, id := range ids {
			c.allow[id] = true
		}
	}
}

// NewClient creates a Client authenticated with token. A non-nil transport
// replaces the default HTTP transport, e.g. to record metrics.
func NewClient(token string, transport http.RoundTripper, logger *zap.Logger, opts ...Option) *Client {
	cli := natureremo.NewClient(token)
	if transport != nil {
		cli.HTTPClient = &http.Client{Transport: transport}
	}
	c := newClient(cli.ApplianceService, cli.DeviceService, logger, opts...)
	c.poster = &formPoster{
		httpClient: cli.HTTPClient,
		baseURL:    cli.BaseURL,
		token:      cli.AccessToken,
		userAgent:  cli.UserAgent,
	}
	return c
}

func newClient(appliances applianceService, devices deviceService, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		appliances: appliances,
		devices:    devices,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Discover returns a descriptor for every usable aircon appliance.
func (c *Client) Discover(ctx context.Context) ([]remoaircon.Descriptor, error) {
	as, err := c.appliances.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get appliances: %w", err)
	}
	var ds []remoaircon.Descriptor
	for _, a := range as {
		if !c.isAircon(a) {
			continue
		}
		d, err := toDescriptor(a)
		if err != nil {
			c.logger.Warn("skipping aircon", zap.String("appliance", a.ID), zap.Error(err))
			continue
		}
		ds = append(ds, d)
	}
	c.logger.Info("discovered aircons", zap.Int("count", len(ds)))
	return ds, nil
}

// FetchAllSettings returns the current settings of every aircon, keyed by
// appliance ID, with a single request. Aircons without settings are left out.
func (c *Client) FetchAllSettings(ctx context.Context) (map[string]remoaircon.RawSettings, error) {
	as, err := c.appliances.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get appliances: %w", err)
	}
	settings := make(map[string]remoaircon.RawSettings, len(as))
	for _, a := range as {
		if !c.isAircon(a) || a.AirConSettings == nil {
			continue
		}
		settings[a.ID] = toRawSettings(a.AirConSettings)
	}
	return settings, nil
}

// FetchSettings returns the current settings of one appliance.
func (c *Client) FetchSettings(ctx context.Context, applianceID string) (remoaircon.RawSettings, error) {
	as, err := c.appliances.GetAll(ctx)
	if err != nil {
		return remoaircon.RawSettings{}, fmt.Errorf("get appliances: %w", err)
	}
	for _, a := range as {
		if a.ID != applianceID {
			continue
		}
		if a.AirConSettings == nil {
			return remoaircon.RawSettings{}, fmt.Errorf("%w: %s", remoaircon.ErrNoAirconSettings, applianceID)
		}
		return toRawSettings(a.AirConSettings), nil
	}
	return remoaircon.RawSettings{}, fmt.Errorf("%w: %s", remoaircon.ErrApplianceNotFound, applianceID)
}

// SendCommand posts cmd to /appliances/{id}/aircon_settings. Only the fields
// the command sets are posted, so a mode change without a default
// temperature leaves the device's temperature alone.
func (c *Client) SendCommand(ctx context.Context, applianceID string, cmd remoaircon.Command) error {
	form, err := toForm(cmd)
	if err != nil {
		return err
	}
	if c.poster == nil {
		return errors.New("remo: client has no HTTP endpoint")
	}
	c.logger.Debug("post aircon settings", zap.String("appliance", applianceID), zap.String("form", form.Encode()))
	return c.poster.post(ctx, fmt.Sprintf("appliances/%s/aircon_settings", url.PathEscape(applianceID)), form)
}

func (c *Client) isAircon(a *natureremo.Appliance) bool {
	if string(a.Type) != remoaircon.ApplianceTypeAC {
		return false
	}
	return c.allow == nil || c.allow[a.ID]
}

// formPoster sends form posts the way natureremo does, authenticated with
// the same token and over the same http.Client.
type formPoster struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
}

func (p *formPoster) post(ctx context.Context, path string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/"+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+p.token)
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	hc := p.httpClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &natureremo.APIError{}
		// the body is optional; the status alone still makes an APIError
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		apiErr.HTTPStatus = resp.StatusCode
		return fmt.Errorf("post %s: %w", path, apiErr)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func toDescriptor(a *natureremo.Appliance) (remoaircon.Descriptor, error) {
	if a.AirConSettings == nil || a.AirCon == nil || a.AirCon.Range == nil {
		return remoaircon.Descriptor{}, remoaircon.ErrNoAirconSettings
	}
	d := remoaircon.Descriptor{
		ID:           a.ID,
		Nickname:     a.Nickname,
		Capabilities: make(remoaircon.CapabilityTable, len(a.AirCon.Range.Modes)),
		Settings:     toRawSettings(a.AirConSettings),
	}
	if a.Device != nil {
		d.DeviceID = a.Device.ID
	}
	for mode, r := range a.AirCon.Range.Modes {
		if r == nil {
			continue
		}
		c := remoaircon.ModeCapability{
			Temperatures: r.Temperature,
		}
		for _, v := range r.AirVolume {
			c.FanLevels = append(c.FanLevels, string(v))
		}
		for _, v := range r.AirDirection {
			c.SwingDirections = append(c.SwingDirections, string(v))
		}
		d.Capabilities[string(mode)] = c
	}
	return d, nil
}

func toRawSettings(s *natureremo.AirConSettings) remoaircon.RawSettings {
	return remoaircon.RawSettings{
		Mode:   string(s.OperationMode),
		Temp:   s.Temperature,
		Button: string(s.Button),
		Vol:    string(s.AirVolume),
		Dir:    string(s.AirDirection),
	}
}

// toForm keeps the fields of cmd that carry a value. A nil field is not
// posted.
func toForm(cmd remoaircon.Command) (url.Values, error) {
	if cmd == nil {
		return nil, errors.New("nil command")
	}
	form := url.Values{}
	for k, v := range cmd.Fields() {
		if v != nil {
			form.Set(k, *v)
		}
	}
	return form, nil
}
