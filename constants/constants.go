package constants

import "time"

const (
	// Simulation cadence
	TICK_RATE  = 33 * time.Millisecond
	SPAWN_POLL = 150 * time.Millisecond

	// Phase transition delays
	START_GRACE = 1 * time.Second
	RESET_DELAY = 3 * time.Second

	// Playfield
	FIELD_WIDTH      = 400.0
	SPAWN_Y          = -50.0
	ON_SCREEN_BOUND  = 550.0
	PRUNE_BOUND      = 600.0
	VISIBLE_TOP      = -100.0
	START_X          = 175.0
	MAX_CANDY_RECORD = 50
	MAX_OBST_RECORD  = 30

	// Difficulty
	BASE_SPEED              = 6.0
	MAX_SPEED               = 15.0
	CANDY_SPAWN_INTERVAL    = 1000 * time.Millisecond
	OBSTACLE_SPAWN_INTERVAL = 1500 * time.Millisecond
	MIN_CANDY_INTERVAL      = 600 * time.Millisecond
	MIN_OBSTACLE_INTERVAL   = 800 * time.Millisecond
	OBSTACLE_RATE_FLOOR     = 0.4
	MAX_CANDIES_ON_SCREEN   = 8
	MAX_OBSTACLES_ON_SCREEN = 4
	SMALL_OBSTACLE_CHANCE   = 0.7

	// Player
	START_SCORE = 100
	START_LIVES = 3

	// Rooms
	ROOM_CODE_LENGTH   = 6
	ROOM_CODE_ALPHABET = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ROOM_CODE_ATTEMPTS = 32
	MAX_CUSTOMIZATION  = 64

	// Inbound message types
	MSG_CREATE_ROOM          = "createRoom"
	MSG_JOIN_ROOM            = "joinRoom"
	MSG_START_CUSTOMIZATION  = "startCustomization"
	MSG_UPDATE_CUSTOMIZATION = "updateCustomization"
	MSG_PLAYER_READY         = "playerReady"
	MSG_PLAYER_MOVE          = "playerMove"
	MSG_CANDY_COLLECTED      = "candyCollected"
	MSG_OBSTACLE_HIT         = "obstacleHit"

	// Outbound message types
	MSG_CONNECTED                    = "connected"
	MSG_ROOM_CREATED                 = "roomCreated"
	MSG_JOINED_ROOM                  = "joinedRoom"
	MSG_PLAYER_JOINED                = "playerJoined"
	MSG_CUSTOMIZATION_STARTED        = "customizationStarted"
	MSG_PLAYER_CUSTOMIZATION_UPDATED = "playerCustomizationUpdated"
	MSG_GAME_START                   = "gameStart"
	MSG_PLAYER_MOVED                 = "playerMoved"
	MSG_CANDY_SPAWNED                = "candySpawned"
	MSG_OBSTACLE_SPAWNED             = "obstacleSpawned"
	MSG_GAME_UPDATE                  = "gameUpdate"
	MSG_GAME_END                     = "gameEnd"
	MSG_PLAYER_LEFT                  = "playerLeft"
	MSG_ERROR                        = "error"

	// Persisted winner marker for tied matches
	DRAW = "Draw"
)

// CANDY_EMOJIS is ordered by value: the first three are worth the most.
var CANDY_EMOJIS = []string{"🍭", "🍬", "🍰", "🍪", "🍩", "🍫", "🍒", "🍓", "⭐", "💖", "💕", "🎀", "👑", "✨", "🌈", "🎪"}
