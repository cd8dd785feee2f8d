package game

// nextVIP returns the player after current in join order, wrapping around.
// The order is always taken from the stored player list so that late joiners
// are picked up. With no current VIP the first player is returned.
func nextVIP(players []Player, current *uint) *uint {
	if len(players) == 0 {
		return nil
	}
	next := 0
	if current != nil {
		for i, player := range players {
			if player.ID == *current {
				next = (i + 1) % len(players)
				break
			}
		}
	}
	id := players[next].ID
	return &id
}
