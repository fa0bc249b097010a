package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/trackctl/internal/adapter/source/rest"
	"github.com/mmcdole/trackctl/internal/domain"
	"github.com/mmcdole/trackctl/internal/params"
)

// listFlags are the individual view flags of the list command
type listFlags struct {
	view   string
	search string
	genre  string
	artist string
	sort   string
	order  string
	page   int
	limit  int
	all    bool
}

// viewQuery merges --view with the individual flags that were set
func (f listFlags) viewQuery(cmd *cobra.Command) (string, error) {
	if f.sort != "" && !domain.SortField(f.sort).Valid() {
		return "", fmt.Errorf("invalid --sort %q", f.sort)
	}
	if f.order != "" && !domain.SortOrder(f.order).Valid() {
		return "", fmt.Errorf("invalid --order %q", f.order)
	}

	raw := f.view
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return "", fmt.Errorf("invalid --view: %w", err)
	}
	set := func(flag, key, value string) {
		if cmd.Flags().Changed(flag) {
			if value == "" {
				q.Del(key)
			} else {
				q.Set(key, value)
			}
		}
	}
	set("search", params.KeySearch, f.search)
	set("genre", params.KeyGenre, f.genre)
	set("artist", params.KeyArtist, f.artist)
	set("sort", params.KeySort, f.sort)
	set("order", params.KeyOrder, f.order)
	set("page", params.KeyPage, strconv.Itoa(f.page))
	set("limit", params.KeyLimit, strconv.Itoa(f.limit))
	return q.Encode(), nil
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var f listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracks",
		Long: `List one page of tracks.

The view can be given as a shareable query (--view "page=2&sort=title")
and refined with the individual flags, which take precedence.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := f.viewQuery(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, query, func(ctx context.Context, a *app) error {
				view := a.library.View()
				out := cmd.OutOrStdout()

				if f.all {
					p := view.Params()
					tracks, err := a.library.FetchAll(ctx, p, func(loaded, total int) {
						if !opts.json {
							fmt.Fprintf(cmd.ErrOrStderr(), "\rLoading %d/%d...", loaded, total)
						}
					})
					if !opts.json {
						fmt.Fprint(cmd.ErrOrStderr(), clearSpinnerLine)
					}
					if err != nil {
						return logFailure(a.logger, "fetch all tracks", err)
					}
					if opts.json {
						return printJSON(out, tracks)
					}
					printTracks(out, tracks)
					return nil
				}

				v, err := a.library.LoadView(ctx)
				if err != nil {
					return logFailure(a.logger, "list tracks", err)
				}
				if v.Stale {
					// One-shot output: wait for the refetch instead of
					// printing the last known page.
					a.library.Wait()
					if cur, ok := a.library.CurrentView(); ok && !cur.Stale {
						v = cur
					}
				}
				if opts.json {
					return printJSON(out, v.Page)
				}
				printTracks(out, v.Page.Data)
				printPageSummary(out, v.Page.Meta, view.Query())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&f.view, "view", "", "shareable view query or URL")
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "search text")
	cmd.Flags().StringVarP(&f.genre, "genre", "g", "", "genre filter")
	cmd.Flags().StringVarP(&f.artist, "artist", "a", "", "artist filter")
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort field: title, artist, album, createdAt")
	cmd.Flags().StringVar(&f.order, "order", "", "sort order: asc, desc")
	cmd.Flags().IntVarP(&f.page, "page", "p", 1, "page number")
	cmd.Flags().IntVarP(&f.limit, "limit", "l", 0, "page size")
	cmd.Flags().BoolVar(&f.all, "all", false, "fetch every page")
	return cmd
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	var bySlug bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, "", func(ctx context.Context, a *app) error {
				var t domain.Track
				var err error
				if bySlug {
					t, err = a.library.GetTrackBySlug(ctx, args[0])
				} else {
					t, err = a.library.GetTrack(ctx, args[0])
				}
				if err != nil {
					return logFailure(a.logger, "get track", err)
				}
				return printResult(cmd, opts, t)
			})
		},
	}

	cmd.Flags().BoolVar(&bySlug, "slug", false, "look the track up by slug")
	return cmd
}

// trackFlags are the editable metadata flags
type trackFlags struct {
	title  string
	artist string
	album  string
	genres []string
	cover  string
}

func (f *trackFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "track title")
	cmd.Flags().StringVarP(&f.artist, "artist", "a", "", "artist")
	cmd.Flags().StringVar(&f.album, "album", "", "album")
	cmd.Flags().StringSliceVarP(&f.genres, "genre", "g", nil, "genre (repeatable or comma separated)")
	cmd.Flags().StringVar(&f.cover, "cover", "", "cover image URL")
}

func newCreateCmd(opts *rootOptions) *cobra.Command {
	var f trackFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a track",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := domain.CreateTrackInput{
				Title:      strings.TrimSpace(f.title),
				Artist:     strings.TrimSpace(f.artist),
				Album:      strings.TrimSpace(f.album),
				Genres:     domain.ParseGenres(strings.Join(f.genres, ",")),
				CoverImage: strings.TrimSpace(f.cover),
			}
			return withApp(cmd.Context(), opts, "", func(ctx context.Context, a *app) error {
				t, err := a.library.CreateTrack(ctx, in)
				if err != nil {
					return logFailure(a.logger, "create track", err)
				}
				return printResult(cmd, opts, *t)
			})
		},
	}

	f.register(cmd)
	return cmd
}

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var f trackFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a track's metadata",
		Long:  "Update a track. Only the flags that are given are sent.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in domain.UpdateTrackInput
			str := func(flag, value string) *string {
				if !cmd.Flags().Changed(flag) {
					return nil
				}
				v := strings.TrimSpace(value)
				return &v
			}
			in.Title = str("title", f.title)
			in.Artist = str("artist", f.artist)
			in.Album = str("album", f.album)
			in.CoverImage = str("cover", f.cover)
			if cmd.Flags().Changed("genre") {
				genres := domain.ParseGenres(strings.Join(f.genres, ","))
				in.Genres = &genres
			}
			if in.IsEmpty() {
				return errors.New("nothing to update: pass at least one of --title, --artist, --album, --genre, --cover")
			}

			return withApp(cmd.Context(), opts, "", func(ctx context.Context, a *app) error {
				t, err := a.library.UpdateTrack(ctx, args[0], in)
				if err != nil {
					return logFailure(a.logger, "update track", err)
				}
				return printResult(cmd, opts, *t)
			})
		},
	}

	f.register(cmd)
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete one or more tracks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, "", func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					if err := a.library.DeleteTrack(ctx, args[0]); err != nil {
						return logFailure(a.logger, "delete track", err)
					}
					if opts.json {
						return printJSON(out, domain.BatchDeleteResult{Success: args, Failed: []string{}})
					}
					fmt.Fprintf(out, "Deleted %s\n", args[0])
					return nil
				}

				res, err := a.library.DeleteTracks(ctx, args)
				if err != nil {
					return logFailure(a.logger, "delete tracks", err)
				}
				if opts.json {
					if err := printJSON(out, res); err != nil {
						return err
					}
				} else {
					fmt.Fprintf(out, "Deleted %d of %d tracks\n", len(res.Success), len(args))
				}
				if res.Partial() {
					return fmt.Errorf("failed to delete: %s", strings.Join(res.Failed, ", "))
				}
				return nil
			})
		},
	}
}

func newUploadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <id> <file>",
		Short: "Attach an audio file to a track",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := rest.OpenAudioFile(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, "", func(ctx context.Context, a *app) error {
				t, err := a.library.UploadFile(ctx, args[0], file)
				if err != nil {
					return logFailure(a.logger, "upload file", err)
				}
				return printResult(cmd, opts, *t)
			})
		},
	}
}

func newRemoveFileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-file <id>",
		Short: "Remove a track's audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, "", func(ctx context.Context, a *app) error {
				t, err := a.library.RemoveFile(ctx, args[0])
				if err != nil {
					return logFailure(a.logger, "remove file", err)
				}
				return printResult(cmd, opts, *t)
			})
		},
	}
}

func newGenresCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "List known genres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, "", func(ctx context.Context, a *app) error {
				genres, err := a.library.Genres(ctx)
				if err != nil {
					return logFailure(a.logger, "list genres", err)
				}
				if opts.json {
					return printJSON(cmd.OutOrStdout(), genres)
				}
				printGenres(cmd.OutOrStdout(), genres)
				return nil
			})
		},
	}
}

// printResult prints a single track in the chosen format
func printResult(cmd *cobra.Command, opts *rootOptions, t domain.Track) error {
	if opts.json {
		return printJSON(cmd.OutOrStdout(), t)
	}
	printTrack(cmd.OutOrStdout(), t)
	return nil
}
