package lemmy

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const (
	communityPageSize  = 50
	listTypeSubscribed = "Subscribed"
)

// communityPager pulls community/list one page at a time, starting at page
// 1. A page shorter than the requested size marks exhaustion; restarting
// means making a new pager.
type communityPager struct {
	session  *session
	token    string
	listType string
	page     int
	lastLen  int
}

func newCommunityPager(session *session, token, listType string) *communityPager {
	return &communityPager{
		session:  session,
		token:    token,
		listType: listType,
		page:     1,
		lastLen:  communityPageSize,
	}
}

func (p *communityPager) next(ctx context.Context) ([]communityView, error) {
	query := url.Values{}
	query.Set("type_", p.listType)
	query.Set("limit", strconv.Itoa(communityPageSize))
	query.Set("page", strconv.Itoa(p.page))
	query.Set("auth", p.token)

	var decoded communityListResponse
	if _, err := p.session.getJSON(ctx, "community/list", query, &decoded); err != nil {
		return nil, fmt.Errorf("fetch community page %d: %w", p.page, err)
	}

	p.page++
	p.lastLen = len(decoded.Communities)

	return decoded.Communities, nil
}

// exhausted reports whether the previous page was short, meaning no
// further pages exist.
func (p *communityPager) exhausted() bool {
	return p.lastLen < communityPageSize
}
