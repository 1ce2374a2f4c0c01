package shadowmap

var ClampBlurTaps = clampBlurTaps
var CullFor = cullFor
