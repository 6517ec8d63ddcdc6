package main

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rumor/internal/syncstore"
	"github.com/mesh-intelligence/rumor/pkg/types"
)

// list flags mirror the query parameters of GET /api/guests.
var listFlags struct {
	page, limit   int
	status        string
	minFollowers  string
	maxFollowers  string
	tag           string
	invitedBefore string
	search        string
	sortField     string
	sortDirection string
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List guests from the server",
	Long: `List fetches one page of guests matching the filters. Filters are ANDed.

Example:
  rumor list --status attending --min-followers 1000
  rumor list --search smith --sort followerCount --direction desc`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := types.ParseQueryRequest(listValues())
		if err != nil {
			return err
		}

		st := syncstore.InitialState()
		st.Page, st.Limit, st.Filters, st.Sort = req.Page, req.Limit, req.Filters, req.Sort
		store, err := newStore(syncstore.WithInitialState(st))
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Fetch(cmd.Context()); err != nil {
			return err
		}
		st = store.State()
		out := cmd.OutOrStdout()
		if flagJSON {
			return printJSON(out, types.QueryResult{
				Guests: st.Guests, Total: st.Total, Page: st.Page, Limit: st.Limit, TotalPages: st.TotalPages,
			})
		}
		if err := printGuests(out, st.Guests); err != nil {
			return err
		}
		fmt.Fprintf(out, "page %d of %d, %d guests\n", st.Page, st.TotalPages, st.Total)
		return nil
	},
}

// listValues encodes the list flags as query parameters so they go through
// the same parsing and validation as HTTP requests.
func listValues() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set(types.ParamPage, strconv.Itoa(listFlags.page))
	set(types.ParamLimit, strconv.Itoa(listFlags.limit))
	set(types.ParamStatus, listFlags.status)
	set(types.ParamMinFollowers, listFlags.minFollowers)
	set(types.ParamMaxFollowers, listFlags.maxFollowers)
	set(types.ParamTag, listFlags.tag)
	set(types.ParamInvitedBefore, listFlags.invitedBefore)
	set(types.ParamSearch, listFlags.search)
	set(types.ParamSortField, listFlags.sortField)
	set(types.ParamSortDirection, listFlags.sortDirection)
	return v
}

var addInput types.GuestInput

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a guest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		defer store.Close()

		g, err := store.AddGuest(cmd.Context(), addInput)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), g)
		}
		fmt.Fprintln(cmd.OutOrStdout(), g.ID)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete guests",
	Long:  `Delete removes the given guests. Unknown ids are ignored.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteGuests(cmd.Context(), args); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d guests remain\n", store.State().Total)
		return nil
	},
}

var tagFlags struct {
	add, remove []string
	create      string
}

var tagCmd = &cobra.Command{
	Use:   "tag <guest-id>...",
	Short: "Add or remove tags on guests",
	Long: `Tag edits the tags of the given guests. Removals apply before additions.

With --create, a catalog tag with that name is created (or the existing one
with the same name reused) and added to a single guest.

Example:
  rumor tag g1 g2 --add VIP --remove Press
  rumor tag g1 --create Speaker`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if tagFlags.create != "" && len(args) != 1 {
			return fmt.Errorf("%w: --create takes exactly one guest id", errUsage)
		}
		store, err := newStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		if tagFlags.create != "" {
			tag, err := store.CreateTagAndAddToGuest(ctx, args[0], tagFlags.create)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tagged %s with %s (%s)\n", args[0], tag.Name, tag.ID)
			return nil
		}

		if err := store.UpdateGuestTags(ctx, args, tagFlags.add, tagFlags.remove); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated tags for %d guests\n", len(args))
		return nil
	},
}

func init() {
	f := listCmd.Flags()
	f.IntVar(&listFlags.page, "page", types.DefaultPage, "page number, 1-based")
	f.IntVar(&listFlags.limit, "limit", types.DefaultLimit, "guests per page")
	f.StringVar(&listFlags.status, "status", "", "RSVP status (pending, invited, attending, declined)")
	f.StringVar(&listFlags.minFollowers, "min-followers", "", "minimum follower count")
	f.StringVar(&listFlags.maxFollowers, "max-followers", "", "maximum follower count")
	f.StringVar(&listFlags.tag, "tag", "", "tag name")
	f.StringVar(&listFlags.invitedBefore, "invited-before", "", "true or false")
	f.StringVar(&listFlags.search, "search", "", "text matched against name, handle, and email")
	f.StringVar(&listFlags.sortField, "sort", "", "sort field (fullName, rsvpStatus, instagramHandle, followerCount, email)")
	f.StringVar(&listFlags.sortDirection, "direction", "", "sort direction (asc, desc)")

	f = addCmd.Flags()
	f.StringVar(&addInput.FullName, "name", "", "full name (required)")
	f.StringVar(&addInput.Email, "email", "", "email (required)")
	f.StringVar((*string)(&addInput.RSVPStatus), "status", "", "RSVP status (default pending)")
	f.StringVar(&addInput.InstagramHandle, "handle", "", "Instagram handle")
	f.IntVar(&addInput.FollowerCount, "followers", 0, "follower count")
	f.StringVar(&addInput.Phone, "phone", "", "phone number")
	f.BoolVar(&addInput.InvitedBefore, "invited-before", false, "invited to a previous event")
	f.StringVar(&addInput.Notes, "notes", "", "free-form notes")
	f.StringSliceVar(&addInput.Tags, "tag", nil, "tag name (repeatable)")

	f = tagCmd.Flags()
	f.StringSliceVar(&tagFlags.add, "add", nil, "tag to add (repeatable)")
	f.StringSliceVar(&tagFlags.remove, "remove", nil, "tag to remove (repeatable)")
	f.StringVar(&tagFlags.create, "create", "", "create a catalog tag and add it to one guest")
}
