package sink

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/itohio/kuuki/pkg/record"
)

const (
	// DefaultThingSpeakURL is the public update endpoint.
	DefaultThingSpeakURL = "https://api.thingspeak.com/update"
	// DefaultUploadTimeout bounds one upload attempt.
	DefaultUploadTimeout = 10 * time.Second
)

// ThingSpeak uploads records to a ThingSpeak channel, one field per
// record value in the channel's fixed field order.
type ThingSpeak struct {
	key    string
	url    string
	client *http.Client
	log    *zap.Logger
}

// NewThingSpeak creates an uploader for the channel identified by the
// write API key. Empty endpoint and zero timeout select the defaults;
// a nil logger disables logging.
func NewThingSpeak(key, endpoint string, timeout time.Duration, log *zap.Logger) (*ThingSpeak, error) {
	if key == "" {
		return nil, errors.New("thingspeak: write API key required")
	}
	if endpoint == "" {
		endpoint = DefaultThingSpeakURL
	}
	if timeout <= 0 {
		timeout = DefaultUploadTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ThingSpeak{
		key:    key,
		url:    endpoint,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}, nil
}

func (t *ThingSpeak) Name() string { return "thingspeak" }

// Emit uploads one record. ThingSpeak answers the new entry id, or "0"
// when the update was rejected (bad key, rate limit), so a "0" body is
// a failure even under HTTP 200.
func (t *ThingSpeak) Emit(rec record.Record) error {
	params := url.Values{}
	params.Set("api_key", t.key)
	params.Set("field1", strconv.Itoa(rec.PM1))
	params.Set("field2", strconv.Itoa(rec.PM25))
	params.Set("field3", strconv.Itoa(rec.PM10))
	params.Set("field4", strconv.FormatFloat(rec.Temperature, 'f', 1, 64))
	params.Set("field5", strconv.FormatFloat(rec.Pressure, 'f', 2, 64))
	params.Set("field6", strconv.FormatFloat(rec.Humidity, 'f', 1, 64))
	params.Set("field7", strconv.FormatFloat(rec.Altitude, 'f', 1, 64))

	resp, err := t.client.Get(t.url + "?" + params.Encode())
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", t.url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return fmt.Errorf("failed to read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("thingspeak: unexpected status %s", resp.Status)
	}
	entry := strings.TrimSpace(string(body))
	if entry == "0" {
		return errors.New("thingspeak: update rejected")
	}

	t.log.Debug("record uploaded", zap.String("entry", entry))
	return nil
}
