package tui

import "github.com/rcliao/ram-pet/internal/model"

var stageArt = map[model.Stage]string{
	model.StageBaby: `
  .-.
 (o o)
  '-'`,
	model.StageChild: `
  .---.
 ( o o )
  \ - /
   '-'`,
	model.StageTeen: `
   .----.
  ( o  o )
  |  --  |
   '----'`,
	model.StageAdult: `
   .------.
  ( o    o )
  |   __   |
  |        |
   '------'`,
	model.StageChubby: `
    .--------.
   ( o      o )
  (     __     )
  (            )
   '----------'`,
	model.StageFat: `
     .----------.
   (  o        o  )
  (       __       )
  (                )
   (              )
    '------------'`,
	model.StageHuge: `
      .------------.
   (   o          o   )
  (         __         )
 (                      )
 (                      )
  (                    )
   '------------------'`,
	model.StageGigantic: `
        .----------------.
    (    O              O    )
  (            ____            )
 (                              )
(                                )
(            64-BIT              )
 (                              )
   '--------------------------'`,
}

var ghostArt = `
   .-.
  (x x)
  |   |
  '~~~'`

// Art is the picture for a stage. A terminated pet is a ghost.
func Art(s model.Snapshot) string {
	if s.Terminated {
		return ghostArt
	}
	return stageArt[s.Stage]
}
