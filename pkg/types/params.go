package types

import (
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names of the guest listing endpoint.
const (
	ParamPage          = "page"
	ParamLimit         = "limit"
	ParamStatus        = "status"
	ParamMinFollowers  = "minFollowers"
	ParamMaxFollowers  = "maxFollowers"
	ParamTag           = "tag"
	ParamInvitedBefore = "invitedBefore"
	ParamSearch        = "search"
	ParamSortField     = "sortField"
	ParamSortDirection = "sortDirection"
)

// Values encodes r as URL query parameters. Inactive filters are omitted.
func (r QueryRequest) Values() url.Values {
	r = r.Normalized()
	v := url.Values{}
	v.Set(ParamPage, strconv.Itoa(r.Page))
	v.Set(ParamLimit, strconv.Itoa(r.Limit))

	f := r.Filters
	if s := f.ActiveStatus(); s != "" {
		v.Set(ParamStatus, string(s))
	}
	if f.MinFollowers != nil {
		v.Set(ParamMinFollowers, strconv.Itoa(*f.MinFollowers))
	}
	if f.MaxFollowers != nil {
		v.Set(ParamMaxFollowers, strconv.Itoa(*f.MaxFollowers))
	}
	if t := f.ActiveTag(); t != "" {
		v.Set(ParamTag, t)
	}
	if f.InvitedBefore != nil {
		v.Set(ParamInvitedBefore, strconv.FormatBool(*f.InvitedBefore))
	}
	if s := f.ActiveSearch(); s != "" {
		v.Set(ParamSearch, s)
	}
	if r.Sort != nil && r.Sort.Field != "" {
		v.Set(ParamSortField, string(r.Sort.Field))
		v.Set(ParamSortDirection, string(r.Sort.Direction))
	}
	return v
}

// ParseQueryRequest decodes URL query parameters into a QueryRequest.
// Absent or empty parameters are inactive. Malformed numbers, booleans,
// statuses, or directions return a validation error. An unrecognized
// sortField is passed through; the query engine ignores it.
func ParseQueryRequest(v url.Values) (QueryRequest, error) {
	req := QueryRequest{Page: DefaultPage, Limit: DefaultLimit}

	var err error
	if req.Page, err = positiveParam(v, ParamPage, DefaultPage); err != nil {
		return QueryRequest{}, err
	}
	if req.Limit, err = positiveParam(v, ParamLimit, DefaultLimit); err != nil {
		return QueryRequest{}, err
	}

	if s := strings.TrimSpace(v.Get(ParamStatus)); s != "" {
		status, err := ParseRSVPStatus(s)
		if err != nil {
			return QueryRequest{}, err
		}
		req.Filters.Status = &status
	}
	if req.Filters.MinFollowers, err = intParam(v, ParamMinFollowers); err != nil {
		return QueryRequest{}, err
	}
	if req.Filters.MaxFollowers, err = intParam(v, ParamMaxFollowers); err != nil {
		return QueryRequest{}, err
	}
	if t := v.Get(ParamTag); t != "" {
		req.Filters.Tag = &t
	}
	if s := strings.TrimSpace(v.Get(ParamInvitedBefore)); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return QueryRequest{}, ValidationError("invalid %s %q", ParamInvitedBefore, s)
		}
		req.Filters.InvitedBefore = &b
	}
	if s := v.Get(ParamSearch); s != "" {
		req.Filters.Search = &s
	}

	if field := strings.TrimSpace(v.Get(ParamSortField)); field != "" {
		dir, err := ParseSortDirection(v.Get(ParamSortDirection))
		if err != nil {
			return QueryRequest{}, err
		}
		req.Sort = &Sort{Field: SortField(field), Direction: dir}
	}
	return req, nil
}

func positiveParam(v url.Values, key string, def int) (int, error) {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, ValidationError("%s must be a positive integer, got %q", key, s)
	}
	return n, nil
}

func intParam(v url.Values, key string) (*int, error) {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, ValidationError("%s must be an integer, got %q", key, s)
	}
	return &n, nil
}
