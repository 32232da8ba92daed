// Package checkin 채팅 클라이언트 제어 API를 통한 출석 메시지 발송을 담당합니다.
package checkin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/darkkaiser/checkin-server/internal/config"
	apperrors "github.com/darkkaiser/checkin-server/internal/pkg/errors"
	"github.com/darkkaiser/checkin-server/internal/service/contract"
	applog "github.com/darkkaiser/checkin-server/pkg/log"
	"github.com/darkkaiser/checkin-server/pkg/strutil"
	"github.com/tidwall/gjson"
)

// clientComponent 제어 API 클라이언트의 로깅용 컴포넌트 이름
const clientComponent = "checkin.client"

// signEndpointPath 그룹 출석을 수행하는 제어 API의 엔드포인트 경로
const signEndpointPath = "/set_group_sign"

// maxResponseBodySize 제어 API 응답 본문의 최대 허용 크기 (비정상 응답으로 인한 메모리 고갈 방지)
const maxResponseBodySize = 1 << 20

// Client 채팅 클라이언트 제어 API를 호출하는 contract.CheckInSender 구현체입니다.
//
// 호출 한 번은 정확히 한 번의 HTTP 요청에 대응하며, 설정된 타임아웃으로 제한됩니다.
// 재시도와 응답 캐싱은 수행하지 않습니다.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ contract.CheckInSender = (*Client)(nil)

// NewClient 제어 API 클라이언트를 생성합니다.
func NewClient(cfg config.APIConfig) *Client {
	applog.WithComponentAndFields(clientComponent, applog.Fields{
		"base_url":     cfg.BaseURL(),
		"access_token": strutil.Mask(cfg.AccessToken),
		"timeout":      cfg.Timeout,
	}).Debug("제어 API 클라이언트 생성")

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     cfg.BaseURL(),
		accessToken: cfg.AccessToken,
	}
}

// checkInRequest 제어 API로 전송되는 출석 요청 본문입니다.
type checkInRequest struct {
	GroupID string `json:"group_id"`
	Message string `json:"message,omitempty"`
}

// SendCheckIn 지정된 그룹에 출석 요청을 발송합니다.
//
// 에러 분류:
//   - Unauthorized: 접근 토큰 거부 (HTTP 401/403)
//   - ExecutionFailed: 그 외 비정상 상태 코드, 또는 200 응답이지만 retcode != 0
//   - Timeout: 설정된 타임아웃 초과
//   - System: 연결 실패 등 그 외 통신 장애
func (c *Client) SendCheckIn(ctx context.Context, groupID, message string) error {
	endpoint, err := c.buildEndpointURL()
	if err != nil {
		return err
	}

	body, err := json.Marshal(checkInRequest{
		GroupID: groupID,
		Message: message,
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "출석 요청 본문 직렬화에 실패했습니다")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "출석 요청 생성에 실패했습니다")
	}
	req.Header.Set("Content-Type", "application/json")

	applog.WithComponentAndFields(clientComponent, applog.Fields{
		"group_id": groupID,
	}).Debug("출석 요청 발송")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return apperrors.Wrap(err, apperrors.System, "제어 API 응답 읽기에 실패했습니다")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.Newf(apperrors.Unauthorized, "제어 API 접근 토큰이 거부되었습니다 (HTTP %d)", resp.StatusCode)

	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return apperrors.Newf(apperrors.ExecutionFailed, "제어 API가 비정상 상태 코드를 반환했습니다 (HTTP %d)", resp.StatusCode)
	}

	return parseSignResponse(groupID, respBody)
}

// buildEndpointURL 출석 엔드포인트의 전체 URL을 생성합니다.
// 접근 토큰이 설정된 경우에만 쿼리 파라미터로 포함시킵니다.
func (c *Client) buildEndpointURL() (string, error) {
	u, err := url.Parse(c.baseURL + signEndpointPath)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.Internal, "제어 API 엔드포인트 URL 생성에 실패했습니다")
	}

	if c.accessToken != "" {
		query := u.Query()
		query.Set("access_token", c.accessToken)
		u.RawQuery = query.Encode()
	}

	return u.String(), nil
}

// parseSignResponse 제어 API의 200 응답 본문을 해석하여 출석 성공 여부를 판정합니다.
//
// 성공 조건은 status == "ok" 이면서 retcode == 0 이며, 실패 시 오류 설명은
// wording 필드를 우선으로, 없으면 message 필드에서 추출합니다.
func parseSignResponse(groupID string, body []byte) error {
	if !gjson.ValidBytes(body) {
		return apperrors.New(apperrors.ExecutionFailed, "제어 API 응답이 JSON 형식이 아닙니다")
	}

	result := gjson.ParseBytes(body)
	if result.Get("status").String() == "ok" && result.Get("retcode").Int() == 0 {
		applog.WithComponentAndFields(clientComponent, applog.Fields{
			"group_id": groupID,
		}).Debug("출석 요청 성공")

		return nil
	}

	wording := result.Get("wording").String()
	if wording == "" {
		wording = result.Get("message").String()
	}
	if wording == "" {
		wording = "알 수 없는 오류"
	}

	return apperrors.Newf(apperrors.ExecutionFailed, "제어 API가 출석 요청을 거부했습니다 (retcode: %d): %s", result.Get("retcode").Int(), wording)
}

// classifyTransportError HTTP 전송 단계에서 발생한 에러를 도메인 에러로 분류합니다.
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.Wrap(err, apperrors.Timeout, "제어 API 요청이 시간 초과되었습니다")
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.Timeout, "제어 API 요청이 시간 초과되었습니다")
	}

	return apperrors.Wrap(err, apperrors.System, "제어 API 호출에 실패했습니다")
}
