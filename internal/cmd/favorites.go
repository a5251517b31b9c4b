package cmd

import (
	"context"
	"fmt"
)

// FavoritesCmd manages favorite configurations
type FavoritesCmd struct {
	List FavoritesListCmd `cmd:"list" help:"List favorite configurations" default:"1"`
	Save FavoritesSaveCmd `cmd:"save" help:"Save the current session's config as a favorite"`
	Load FavoritesLoadCmd `cmd:"load" help:"Apply a favorite to the current session"`
	Del  FavoritesDelCmd  `cmd:"del" help:"Delete a favorite configuration"`
}

// FavoritesListCmd lists favorites
type FavoritesListCmd struct{}

// Run executes the list command
func (f *FavoritesListCmd) Run(container *Container) error {
	favorites := container.SessionService.ListFavorites()
	if len(favorites) == 0 {
		fmt.Println("No favorite configurations")
		return nil
	}
	for _, fav := range favorites {
		desc := fav.Description
		if desc != "" {
			desc = "  " + desc
		}
		fmt.Printf("%-36s  %-24s  images:%d%s\n", fav.ID, fav.Name, fav.ImageCount, desc)
	}
	return nil
}

// FavoritesSaveCmd saves the current config as a favorite
type FavoritesSaveCmd struct {
	Name        string `arg:"" help:"Favorite name"`
	Description string `help:"Optional description" short:"m"`
}

// Run executes the save command
func (f *FavoritesSaveCmd) Run(container *Container) error {
	fav, err := container.SessionService.SaveFavoriteConfig(context.Background(), f.Name, f.Description)
	if err != nil {
		return err
	}
	fmt.Printf("Saved favorite '%s' (%s)\n", fav.Name, fav.ID)
	return nil
}

// FavoritesLoadCmd applies a favorite to the current session
type FavoritesLoadCmd struct {
	ID string `arg:"" help:"ID of the favorite to apply"`
}

// Run executes the load command
func (f *FavoritesLoadCmd) Run(container *Container) error {
	if err := container.SessionService.LoadFavoriteConfig(context.Background(), f.ID); err != nil {
		return err
	}
	fmt.Println("Favorite applied to current session")
	return nil
}

// FavoritesDelCmd deletes a favorite
type FavoritesDelCmd struct {
	ID string `arg:"" help:"ID of the favorite to delete"`
}

// Run executes the del command
func (f *FavoritesDelCmd) Run(container *Container) error {
	if err := container.SessionService.DeleteFavoriteConfig(context.Background(), f.ID); err != nil {
		return err
	}
	fmt.Println("Favorite deleted")
	return nil
}
