package config

// Built-in room management recipe for the receptionist dashboard.
const (
	RoomManagementRecipe  = "room-management"
	RoomManagementTarget  = "ReceptionistDashboard.jsx"
	RoomManagementPattern = `(?m)\)\s*:\s*\([ \t]*(\r?)$`

	// RoomManagementSentinel is present once the branch has been injected.
	RoomManagementSentinel = "showRoomManagement ? ("

	RoomManagementMessage = "Room management section added successfully!"
)

// RoomManagementBranch is the text injected at the first `) : (` line of the
// dashboard's view ternary. It ends with `) : (` so the existing else-branch
// stays attached.
const RoomManagementBranch = ` ) : showRoomManagement ? (
                <div className="bg-white rounded-lg shadow p-6">
                  <div className="flex justify-between items-center mb-4">
                    <h3 className="text-lg font-medium text-gray-900">Room Management</h3>
                    <button
                      onClick={() => setShowRoomManagement(false)}
                      className="text-sm text-gray-500 hover:text-gray-700"
                    >
                      ← Back to Dashboard
                    </button>
                  </div>
                  <div className="text-center py-8">
                    <p className="text-gray-500">Room management functionality is coming soon.</p>
                  </div>
                </div>
              ) : (`

// RoomManagementBlock is the expand template for the built-in recipe. The
// trailing $1 puts back the carriage return captured by the pattern on
// CRLF files.
const RoomManagementBlock = RoomManagementBranch + "$1"

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{
		Patcher: PatcherConfig{
			Recipes: []RecipeConfig{
				{
					Name:           RoomManagementRecipe,
					Target:         RoomManagementTarget,
					Pattern:        RoomManagementPattern,
					Replacement:    RoomManagementBlock,
					SkipIfContains: RoomManagementSentinel,
					SuccessMessage: RoomManagementMessage,
					Expand:         true,
				},
			},
		},
	}
	cfg.ApplyDefaults()

	return cfg
}
