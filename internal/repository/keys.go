package repository

const leaderboardKey = "leaderboard"

func gameKey(id string) string {
	return "game:" + id
}

// waitingGamesKey holds the ids of the vs-player games username opened and nobody joined yet.
func waitingGamesKey(username string) string {
	return "game:waiting:" + username
}

func playerGamesKey(username string) string {
	return "player:" + username + ":games"
}

func userKey(username string) string {
	return "user:" + username
}
