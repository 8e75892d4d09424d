package config

const (
	defaultVideoSrc       = "~/.local/share/datapipe/videos/src"
	defaultVideoDst       = "~/.local/share/datapipe/videos/dst"
	defaultThumbnailDir   = "~/.local/share/datapipe/thumbnails"
	defaultOutputDir      = "~/.local/share/datapipe/output"
	defaultReportsDir     = "~/.local/share/datapipe/reports"
	defaultStateDir       = "~/.local/share/datapipe/state"
	defaultLogDir         = "~/.local/share/datapipe/logs"
	defaultAdjList        = "adjlist.json"
	defaultRelabeled      = "adjlist_relabeled.json"
	defaultNodeMap        = "node_map.json"
	defaultVideoWidth     = 640
	defaultVideoHeight    = 360
	defaultThumbWidth     = 300
	defaultThumbHeight    = 168
	defaultThumbOutput    = "thumbnails.json"
	defaultTrainSplit     = 0.8
	defaultValSplit       = 0.1
	defaultTestSplit      = 0.1
	defaultSeed           = 1
	defaultTrainMask      = "train_mask.txt"
	defaultValMask        = "val_mask.txt"
	defaultTestMask       = "test_mask.txt"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultEnvFile        = ".env"
	splitSumTolerance     = 1e-9
	envYTDLPBinary        = "DATAPIPE_YTDLP"
	envFFmpegBinary       = "DATAPIPE_FFMPEG"
	envFFprobeBinary      = "DATAPIPE_FFPROBE"
	envMoveTable          = "DATAPIPE_MOVE_TABLE"
	envVideoTable         = "DATAPIPE_VIDEO_TABLE"
	requiredFieldTemplate = "%s is required. Set it in %s (create with 'datapipe config init')"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			VideoSrc:     defaultVideoSrc,
			VideoDst:     defaultVideoDst,
			ThumbnailDir: defaultThumbnailDir,
			OutputDir:    defaultOutputDir,
			ReportsDir:   defaultReportsDir,
			StateDir:     defaultStateDir,
			LogDir:       defaultLogDir,
		},
		Graph: Graph{
			Directed:  true,
			AdjList:   defaultAdjList,
			Relabeled: defaultRelabeled,
			NodeMap:   defaultNodeMap,
		},
		Videos: Videos{
			Width:  defaultVideoWidth,
			Height: defaultVideoHeight,
		},
		Thumbnails: Thumbnails{
			Width:  defaultThumbWidth,
			Height: defaultThumbHeight,
			Output: defaultThumbOutput,
		},
		Dataset: Dataset{
			TrainSplit: defaultTrainSplit,
			ValSplit:   defaultValSplit,
			TestSplit:  defaultTestSplit,
			Seed:       defaultSeed,
			TrainMask:  defaultTrainMask,
			ValMask:    defaultValMask,
			TestMask:   defaultTestMask,
		},
		Tools: Tools{
			YTDLP:   "yt-dlp",
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
			EnvFile: defaultEnvFile,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
