package simulator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"viewsim/internal/shared/types"
	"viewsim/proxypool/model"
)

const MaxTabCount = 20

var (
	ErrSessionRunning = errors.New("a session is already running")
	ErrNoVideoURL     = errors.New("session has no video URL")
)

var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/watch\?v=[\w-]+`),
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/shorts/[\w-]+`),
	regexp.MustCompile(`^https?://youtu\.be/[\w-]+`),
}

// StartConfig is the input of StartSession.
type StartConfig struct {
	VideoURL       string              `json:"videoUrl" validate:"required,youtube"`
	VideoType      types.VideoType     `json:"videoType" validate:"omitempty,oneof=video short"`
	TabCount       int                 `json:"tabCount" validate:"min=1,max=20"`
	Proxies        []model.ProxyRecord `json:"proxies"`
	UseAutoProxies bool                `json:"useAutoProxies"`
}

// ValidationError lists the offending fields by their JSON name.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, e.Fields[k]))
	}
	return "invalid session config: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("youtube", func(fl validator.FieldLevel) bool {
		return IsYouTubeURL(fl.Field().String())
	})
	return v
}

// IsYouTubeURL reports whether u is a watch, shorts or youtu.be link.
func IsYouTubeURL(u string) bool {
	for _, p := range youtubePatterns {
		if p.MatchString(u) {
			return true
		}
	}
	return false
}

// Normalize trims the URL and derives VideoType when it is empty.
func (c *StartConfig) Normalize() {
	c.VideoURL = strings.TrimSpace(c.VideoURL)
	if c.VideoType == "" {
		c.VideoType = types.VideoTypeVideo
		if strings.Contains(c.VideoURL, "/shorts/") {
			c.VideoType = types.VideoTypeShort
		}
	}
}

// Validate returns a *ValidationError describing every invalid field.
func (c *StartConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		ve.Fields[fe.Field()] = fieldMessage(fe)
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "youtube":
		return "must be a YouTube video or shorts URL"
	case "min", "max":
		return fmt.Sprintf("must be between 1 and %d", MaxTabCount)
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
