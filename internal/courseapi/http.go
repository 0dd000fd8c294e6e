package courseapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/courseforge/courseforge/internal/content"
)

// HTTPClient talks to the REST content backend.
//
// Retry policy note: the client performs NO retries of its own. The
// engine's persistence scheduler owns backoff and retry, and doubling
// up here would defeat its cancellation guarantees.
type HTTPClient struct {
	rc *resty.Client
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Message string `json:"message"`
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithTimeout sets the per-request timeout. Default 15s.
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		c.rc.SetTimeout(d)
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) HTTPOption {
	return func(c *HTTPClient) {
		c.rc.SetAuthToken(token)
	}
}

// NewHTTPClient creates a client for the backend at baseURL.
func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")

	c := &HTTPClient{rc: rc}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// classify converts a resty response/error pair into a classified error.
func classify(op string, resp *resty.Response, err error) error {
	if err != nil {
		// Transport-level failure (DNS, refused connection, timeout).
		// Cancellation is classified fatal: a cancelled save was
		// superseded on purpose and must not be retried.
		if errors.Is(err, context.Canceled) {
			return WrapError(KindFatal, op, err)
		}
		return WrapError(KindNetwork, op, err)
	}
	status := resp.StatusCode()
	msg := resp.Status()
	if eb, ok := resp.Error().(*errorBody); ok && eb != nil && eb.Message != "" {
		msg = eb.Message
	}
	return &Error{Kind: ClassifyStatus(status), Op: op, Status: status, Message: msg}
}

// FetchCourse implements Client.
func (c *HTTPClient) FetchCourse(ctx context.Context, courseID string) (*content.CourseTree, error) {
	var tree content.CourseTree
	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(&tree).
		SetError(&errorBody{}).
		Get(fmt.Sprintf("/courses/%s/tree", courseID))
	if err != nil || !resp.IsSuccess() {
		return nil, classify("fetch course", resp, err)
	}
	return &tree, nil
}

// SaveCourse implements Client.
func (c *HTTPClient) SaveCourse(ctx context.Context, tree *content.CourseTree) (*content.CourseTree, error) {
	var saved content.CourseTree
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(tree).
		SetResult(&saved).
		SetError(&errorBody{}).
		Put(fmt.Sprintf("/courses/%s/tree", tree.ID))
	if err != nil || !resp.IsSuccess() {
		return nil, classify("save course", resp, err)
	}
	return &saved, nil
}

// CreateLesson implements Client.
func (c *HTTPClient) CreateLesson(ctx context.Context, moduleID string, lesson *content.Lesson) (*content.Lesson, error) {
	var created content.Lesson
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(lesson).
		SetResult(&created).
		SetError(&errorBody{}).
		Post(fmt.Sprintf("/modules/%s/lessons", moduleID))
	if err != nil || !resp.IsSuccess() {
		return nil, classify("create lesson", resp, err)
	}
	return &created, nil
}

// reorderBody is the payload for the two reorder endpoints.
type reorderBody struct {
	IDs []string `json:"ids"`
}

// ReorderModules implements Client.
func (c *HTTPClient) ReorderModules(ctx context.Context, courseID string, ids []string) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(reorderBody{IDs: ids}).
		SetError(&errorBody{}).
		Put(fmt.Sprintf("/courses/%s/module-order", courseID))
	if err != nil || !resp.IsSuccess() {
		return classify("reorder modules", resp, err)
	}
	return nil
}

// ReorderLessons implements Client.
func (c *HTTPClient) ReorderLessons(ctx context.Context, moduleID string, ids []string) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(reorderBody{IDs: ids}).
		SetError(&errorBody{}).
		Put(fmt.Sprintf("/modules/%s/lesson-order", moduleID))
	if err != nil || !resp.IsSuccess() {
		return classify("reorder lessons", resp, err)
	}
	return nil
}

// moveBody is the payload for the move endpoint.
type moveBody struct {
	ModuleID string `json:"module_id"`
	Index    int    `json:"index"`
}

// MoveLesson implements Client.
func (c *HTTPClient) MoveLesson(ctx context.Context, lessonID, targetModuleID string, index int) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(moveBody{ModuleID: targetModuleID, Index: index}).
		SetError(&errorBody{}).
		Post(fmt.Sprintf("/lessons/%s/move", lessonID))
	if err != nil || !resp.IsSuccess() {
		return classify("move lesson", resp, err)
	}
	return nil
}

// Publish implements Client.
func (c *HTTPClient) Publish(ctx context.Context, courseID string) (*content.CourseTree, error) {
	return c.courseAction(ctx, courseID, "publish")
}

// Unpublish implements Client.
func (c *HTTPClient) Unpublish(ctx context.Context, courseID string) (*content.CourseTree, error) {
	return c.courseAction(ctx, courseID, "unpublish")
}

// Clone implements Client.
func (c *HTTPClient) Clone(ctx context.Context, courseID string) (*content.CourseTree, error) {
	return c.courseAction(ctx, courseID, "clone")
}

func (c *HTTPClient) courseAction(ctx context.Context, courseID, action string) (*content.CourseTree, error) {
	var tree content.CourseTree
	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(&tree).
		SetError(&errorBody{}).
		Post(fmt.Sprintf("/courses/%s/%s", courseID, action))
	if err != nil || !resp.IsSuccess() {
		return nil, classify(action+" course", resp, err)
	}
	return &tree, nil
}
